package keyline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/keyline-auth/keyline/cache"
	"github.com/keyline-auth/keyline/google"
	"github.com/keyline-auth/keyline/jwt"
	"github.com/keyline-auth/keyline/password"
	"github.com/keyline-auth/keyline/rbac"
	"github.com/keyline-auth/keyline/store"
)

// fakeDB is an in-memory Database. Transactions run fn directly; rollback
// fidelity is covered by the store package tests.
type fakeDB struct {
	mu         sync.Mutex
	users      map[string]*store.User
	identities []*store.Identity
	roles      map[string]*store.Role
	userRoles  map[string][]string
	sessions   map[string]*store.Session

	sessionUpdates int
	sessionCreates int
	failTx         error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:     make(map[string]*store.User),
		roles:     make(map[string]*store.Role),
		userRoles: make(map[string][]string),
		sessions:  make(map[string]*store.Session),
	}
}

func (d *fakeDB) Transaction(ctx context.Context, fn func(tx Database) error) error {
	if d.failTx != nil {
		return d.failTx
	}
	return fn(d)
}

func (d *fakeDB) CreateUser(ctx context.Context, u *store.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	cp := *u
	d.users[u.ID] = &cp
	return nil
}

func (d *fakeDB) UserByID(ctx context.Context, id string) (*store.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (d *fakeDB) UserByEmail(ctx context.Context, email string) (*store.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (d *fakeDB) UpdateUser(ctx context.Context, u *store.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.users[u.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *u
	d.users[u.ID] = &cp
	return nil
}

func (d *fakeDB) CreateIdentity(ctx context.Context, id *store.Identity) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.identities {
		if existing.Provider == id.Provider && existing.Subject == id.Subject {
			return store.ErrDuplicate
		}
	}
	cp := *id
	d.identities = append(d.identities, &cp)
	return nil
}

func (d *fakeDB) IdentityBySubject(ctx context.Context, provider, subject string) (*store.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range d.identities {
		if id.Provider == provider && id.Subject == subject {
			cp := *id
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (d *fakeDB) IdentityByUser(ctx context.Context, userID, provider string) (*store.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range d.identities {
		if id.UserID == userID && id.Provider == provider {
			cp := *id
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (d *fakeDB) CreateRole(ctx context.Context, r *store.Role) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.roles {
		if existing.Name == r.Name {
			return store.ErrDuplicate
		}
	}
	cp := *r
	d.roles[r.ID] = &cp
	return nil
}

func (d *fakeDB) RoleByID(ctx context.Context, id string) (*store.Role, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.roles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (d *fakeDB) RoleByName(ctx context.Context, name string) (*store.Role, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.roles {
		if r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (d *fakeDB) DefaultRole(ctx context.Context) (*store.Role, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.roles {
		if r.IsDefault {
			cp := *r
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (d *fakeDB) UpdateRole(ctx context.Context, r *store.Role) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.roles[r.ID]; !ok {
		return store.ErrNotFound
	}
	for _, existing := range d.roles {
		if existing.ID != r.ID && existing.Name == r.Name {
			return store.ErrDuplicate
		}
	}
	cp := *r
	d.roles[r.ID] = &cp
	return nil
}

func (d *fakeDB) DeleteRole(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.roles[id]; !ok {
		return store.ErrNotFound
	}
	delete(d.roles, id)
	for userID, roleIDs := range d.userRoles {
		kept := roleIDs[:0]
		for _, rid := range roleIDs {
			if rid != id {
				kept = append(kept, rid)
			}
		}
		d.userRoles[userID] = kept
	}
	return nil
}

func (d *fakeDB) Roles(ctx context.Context, page store.Page) ([]store.Role, int64, error) {
	all, _ := d.AllRoles(ctx)
	total := int64(len(all))
	if page.Number < 1 {
		page.Number = 1
	}
	if page.PerPage < 1 {
		page.PerPage = 10
	}
	start := (page.Number - 1) * page.PerPage
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + page.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (d *fakeDB) AllRoles(ctx context.Context) ([]store.Role, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []store.Role
	for _, r := range d.roles {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *fakeDB) AssignRole(ctx context.Context, userID, roleID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, rid := range d.userRoles[userID] {
		if rid == roleID {
			return nil
		}
	}
	d.userRoles[userID] = append(d.userRoles[userID], roleID)
	return nil
}

func (d *fakeDB) RolesOfUser(ctx context.Context, userID string) ([]store.Role, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []store.Role
	for _, rid := range d.userRoles[userID] {
		if r, ok := d.roles[rid]; ok {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *fakeDB) CreateSession(ctx context.Context, sess *store.Session) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[sess.UserID]; ok {
		return store.ErrDuplicate
	}
	cp := *sess
	d.sessions[sess.UserID] = &cp
	d.sessionCreates++
	return nil
}

func (d *fakeDB) SessionByUser(ctx context.Context, userID string) (*store.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	sess, ok := d.sessions[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (d *fakeDB) SessionByRefreshToken(ctx context.Context, refreshToken string) (*store.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, sess := range d.sessions {
		if sess.RefreshToken == refreshToken {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (d *fakeDB) UpdateSession(ctx context.Context, sess *store.Session) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[sess.UserID]; !ok {
		return store.ErrNotFound
	}
	cp := *sess
	d.sessions[sess.UserID] = &cp
	d.sessionUpdates++
	return nil
}

func (d *fakeDB) DeleteSession(ctx context.Context, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sessions, userID)
	return nil
}

// fakeGoogle is a scriptable GoogleProvider.
type fakeGoogle struct {
	exchangeToken *google.Token
	exchangeErr   error
	refreshed     *google.Token
	refreshErr    error
	refreshCalls  int
	userInfo      *google.UserInfo
	userInfoErr   error
	revoked       []string
}

func (g *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (g *fakeGoogle) Exchange(ctx context.Context, code string) (*google.Token, error) {
	if g.exchangeErr != nil {
		return nil, g.exchangeErr
	}
	return g.exchangeToken, nil
}

func (g *fakeGoogle) Refresh(ctx context.Context, refreshToken string) (*google.Token, error) {
	g.refreshCalls++
	if g.refreshErr != nil {
		return nil, g.refreshErr
	}
	return g.refreshed, nil
}

func (g *fakeGoogle) UserInfo(ctx context.Context, accessToken string) (*google.UserInfo, error) {
	if g.userInfoErr != nil {
		return nil, g.userInfoErr
	}
	return g.userInfo, nil
}

func (g *fakeGoogle) Revoke(ctx context.Context, token string) error {
	g.revoked = append(g.revoked, token)
	return nil
}

// fakeVerifier maps raw tokens to claims.
type fakeVerifier struct {
	claims map[string]*google.IDClaims
}

func (v *fakeVerifier) Verify(ctx context.Context, idToken string) (*google.IDClaims, error) {
	c, ok := v.claims[idToken]
	if !ok {
		return nil, google.ErrInvalidToken
	}
	return c, nil
}

// fakeCache is a map-backed UserCache with hit/miss counters.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	hits    int
	misses  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		c.misses++
		return cache.ErrMiss
	}
	c.hits++
	return json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

type fixture struct {
	svc    *Service
	db     *fakeDB
	enf    *rbac.Enforcer
	google *fakeGoogle
	cache  *fakeCache
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hasher, err := password.NewHasher(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	tokens, err := jwt.NewManager(jwt.Config{
		Secret:     []byte("test-secret-test-secret-test-sec"),
		Issuer:     "keyline",
		AccessTTL:  time.Hour,
		RefreshTTL: 168 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		db:     newFakeDB(),
		enf:    rbac.NewEnforcer(nil),
		google: &fakeGoogle{},
		cache:  newFakeCache(),
		clock:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	svc, err := New().
		WithLogger(log).
		WithDatabase(f.db).
		WithEnforcer(f.enf).
		WithTokenManager(tokens).
		WithPasswordPool(password.NewPool(hasher, 2)).
		WithGoogle(f.google, &fakeVerifier{claims: map[string]*google.IDClaims{}}).
		WithCache(f.cache).
		WithClock(func() time.Time { return f.clock }).
		Build()
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	f.svc = svc
	return f
}

// withVerifier swaps the scripted verifier in after construction.
func (f *fixture) withVerifier(v IdentityVerifier) {
	f.svc.verifier = v
}

func (f *fixture) seedDefaultRole(t *testing.T) *store.Role {
	t.Helper()
	r := &store.Role{ID: uuid.NewString(), Name: "member", IsDefault: true}
	if err := f.db.CreateRole(context.Background(), r); err != nil {
		t.Fatalf("seed default role: %v", err)
	}
	return r
}

func TestBuilderRequiresCoreDependencies(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("expected build without dependencies to fail")
	}
}

func TestBuilderBuildsOnce(t *testing.T) {
	f := newFixture(t)
	_ = f

	b := New().
		WithDatabase(newFakeDB()).
		WithEnforcer(rbac.NewEnforcer(nil)).
		WithTokenManager(f.svc.tokens).
		WithPasswordPool(f.svc.hasher)
	if _, err := b.Build(); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second build to fail")
	}
}

var errBoom = errors.New("boom")
