package keyline

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/keyline-auth/keyline/google"
	"github.com/keyline-auth/keyline/jwt"
	"github.com/keyline-auth/keyline/password"
	"github.com/keyline-auth/keyline/rbac"
	"github.com/keyline-auth/keyline/store"
)

// CredentialStore persists user accounts.
type CredentialStore interface {
	CreateUser(ctx context.Context, u *store.User) error
	UserByID(ctx context.Context, id string) (*store.User, error)
	UserByEmail(ctx context.Context, email string) (*store.User, error)
	UpdateUser(ctx context.Context, u *store.User) error
}

// IdentityStore persists provider identity links.
type IdentityStore interface {
	CreateIdentity(ctx context.Context, id *store.Identity) error
	IdentityBySubject(ctx context.Context, provider, subject string) (*store.Identity, error)
	IdentityByUser(ctx context.Context, userID, provider string) (*store.Identity, error)
}

// RoleStore persists roles and user assignments.
type RoleStore interface {
	CreateRole(ctx context.Context, r *store.Role) error
	RoleByID(ctx context.Context, id string) (*store.Role, error)
	RoleByName(ctx context.Context, name string) (*store.Role, error)
	DefaultRole(ctx context.Context) (*store.Role, error)
	UpdateRole(ctx context.Context, r *store.Role) error
	DeleteRole(ctx context.Context, id string) error
	Roles(ctx context.Context, page store.Page) ([]store.Role, int64, error)
	AllRoles(ctx context.Context) ([]store.Role, error)
	AssignRole(ctx context.Context, userID, roleID string) error
	RolesOfUser(ctx context.Context, userID string) ([]store.Role, error)
}

// SessionStore persists the single session row per user.
type SessionStore interface {
	CreateSession(ctx context.Context, sess *store.Session) error
	SessionByUser(ctx context.Context, userID string) (*store.Session, error)
	SessionByRefreshToken(ctx context.Context, refreshToken string) (*store.Session, error)
	UpdateSession(ctx context.Context, sess *store.Session) error
	DeleteSession(ctx context.Context, userID string) error
}

// Database is everything the service needs from persistence. Transaction
// runs fn against a Database bound to one database transaction.
type Database interface {
	CredentialStore
	IdentityStore
	RoleStore
	SessionStore
	Transaction(ctx context.Context, fn func(tx Database) error) error
}

type gormDatabase struct {
	*store.Store
}

func (d gormDatabase) Transaction(ctx context.Context, fn func(tx Database) error) error {
	return d.Store.Transaction(ctx, func(tx *store.Store) error {
		return fn(gormDatabase{tx})
	})
}

// NewDatabase adapts a gorm store to the Database interface.
func NewDatabase(s *store.Store) Database {
	return gormDatabase{s}
}

// GoogleProvider is the OAuth2 surface of the external provider.
type GoogleProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*google.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*google.Token, error)
	UserInfo(ctx context.Context, accessToken string) (*google.UserInfo, error)
	Revoke(ctx context.Context, token string) error
}

// IdentityVerifier validates provider-issued identity tokens.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*google.IDClaims, error)
}

// UserCache is the read-through cache for resolved user projections.
type UserCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// Service is the auth orchestrator: registration, login, refresh, logout,
// current-user resolution and role administration.
type Service struct {
	log        *logrus.Logger
	db         Database
	enforcer   *rbac.Enforcer
	tokens     *jwt.Manager
	hasher     *password.Pool
	google     GoogleProvider
	verifier   IdentityVerifier
	cache      UserCache
	sessionTTL time.Duration
	now        func() time.Time
}

// Builder assembles a Service. Required: database, enforcer, token manager
// and password pool. Google provider, verifier and cache are optional; the
// operations needing them fail with ErrInvalidProvider or skip caching.
type Builder struct {
	svc   Service
	built bool
}

// New returns a Builder with defaults applied.
func New() *Builder {
	return &Builder{svc: Service{
		sessionTTL: 168 * time.Hour,
		now:        time.Now,
	}}
}

func (b *Builder) WithLogger(log *logrus.Logger) *Builder {
	b.svc.log = log
	return b
}

func (b *Builder) WithDatabase(db Database) *Builder {
	b.svc.db = db
	return b
}

func (b *Builder) WithEnforcer(e *rbac.Enforcer) *Builder {
	b.svc.enforcer = e
	return b
}

func (b *Builder) WithTokenManager(m *jwt.Manager) *Builder {
	b.svc.tokens = m
	return b
}

func (b *Builder) WithPasswordPool(p *password.Pool) *Builder {
	b.svc.hasher = p
	return b
}

func (b *Builder) WithGoogle(client GoogleProvider, verifier IdentityVerifier) *Builder {
	b.svc.google = client
	b.svc.verifier = verifier
	return b
}

func (b *Builder) WithCache(c UserCache) *Builder {
	b.svc.cache = c
	return b
}

func (b *Builder) WithSessionTTL(ttl time.Duration) *Builder {
	if ttl > 0 {
		b.svc.sessionTTL = ttl
	}
	return b
}

// WithClock overrides the time source. Test hook.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if now != nil {
		b.svc.now = now
	}
	return b
}

// Build validates the assembly and returns the Service. A Builder builds
// once.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.svc.db == nil {
		return nil, errors.New("database is required")
	}
	if b.svc.enforcer == nil {
		return nil, errors.New("enforcer is required")
	}
	if b.svc.tokens == nil {
		return nil, errors.New("token manager is required")
	}
	if b.svc.hasher == nil {
		return nil, errors.New("password pool is required")
	}
	if b.svc.log == nil {
		b.svc.log = logrus.New()
	}
	b.built = true
	svc := b.svc
	return &svc, nil
}
