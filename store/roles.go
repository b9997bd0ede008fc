package store

import "context"

// Page carries offset pagination for role listings.
type Page struct {
	Number  int
	PerPage int
}

func (p Page) normalized() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 10
	}
	return p
}

// CreateRole inserts r. Returns ErrDuplicate when the name is taken.
func (s *Store) CreateRole(ctx context.Context, r *Role) error {
	return translate(s.db.WithContext(ctx).Create(r).Error)
}

// RoleByID loads a role by primary key.
func (s *Store) RoleByID(ctx context.Context, id string) (*Role, error) {
	var r Role
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// RoleByName loads a role by its unique name.
func (s *Store) RoleByName(ctx context.Context, name string) (*Role, error) {
	var r Role
	if err := s.db.WithContext(ctx).First(&r, "name = ?", name).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// DefaultRole returns the role flagged as default, or ErrNotFound when no
// role carries the flag.
func (s *Store) DefaultRole(ctx context.Context) (*Role, error) {
	var r Role
	if err := s.db.WithContext(ctx).First(&r, "is_default = ?", true).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// UpdateRole saves every field of r.
func (s *Store) UpdateRole(ctx context.Context, r *Role) error {
	return translate(s.db.WithContext(ctx).Save(r).Error)
}

// DeleteRole soft-deletes the role and removes its user assignments.
func (s *Store) DeleteRole(ctx context.Context, id string) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.db.Delete(&UserRole{}, "role_id = ?", id).Error; err != nil {
			return translate(err)
		}
		res := tx.db.Delete(&Role{}, "id = ?", id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Roles returns one page of roles ordered by name, with the total count
// before paging.
func (s *Store) Roles(ctx context.Context, page Page) ([]Role, int64, error) {
	page = page.normalized()

	var total int64
	if err := s.db.WithContext(ctx).Model(&Role{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var roles []Role
	err := s.db.WithContext(ctx).
		Order("name").
		Limit(page.PerPage).
		Offset((page.Number - 1) * page.PerPage).
		Find(&roles).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return roles, total, nil
}

// AllRoles returns every role ordered by name.
func (s *Store) AllRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	if err := s.db.WithContext(ctx).Order("name").Find(&roles).Error; err != nil {
		return nil, translate(err)
	}
	return roles, nil
}

// AssignRole grants a role to a user. Repeat assignment is a no-op.
func (s *Store) AssignRole(ctx context.Context, userID, roleID string) error {
	err := s.db.WithContext(ctx).Create(&UserRole{UserID: userID, RoleID: roleID}).Error
	if err := translate(err); err != nil && err != ErrDuplicate {
		return err
	}
	return nil
}

// RolesOfUser returns the roles assigned to a user, ordered by name.
func (s *Store) RolesOfUser(ctx context.Context, userID string) ([]Role, error) {
	var roles []Role
	err := s.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name").
		Find(&roles).Error
	if err != nil {
		return nil, translate(err)
	}
	return roles, nil
}
