package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/keyline-auth/keyline"
	"github.com/keyline-auth/keyline/cache"
	"github.com/keyline-auth/keyline/google"
	"github.com/keyline-auth/keyline/httpapi"
	"github.com/keyline-auth/keyline/jwt"
	"github.com/keyline-auth/keyline/password"
	"github.com/keyline-auth/keyline/rbac"
	"github.com/keyline-auth/keyline/store"
)

const shutdownGrace = 10 * time.Second

func main() {
	log := logrus.New()

	cfg, err := keyline.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("loading config")
	}
	configureLogger(log, cfg)

	if err := run(log, cfg); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func configureLogger(log *logrus.Logger, cfg *keyline.Config) {
	if lvl, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		log.SetLevel(lvl)
	}
	if cfg.Logging.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
}

func run(log *logrus.Logger, cfg *keyline.Config) error {
	db, err := openDatabase(cfg.Database.DSN)
	if err != nil {
		return err
	}
	st := store.New(db)
	if err := st.AutoMigrate(); err != nil {
		return err
	}

	adapter := store.NewPolicyAdapter(st)
	policies, edges, err := adapter.LoadPolicies(context.Background())
	if err != nil {
		return err
	}
	enforcer := rbac.NewEnforcer(adapter)
	enforcer.Load(policies, edges)
	log.WithField("policies", len(policies)).Info("policy store hydrated")

	tokens, err := jwt.NewManager(jwt.Config{
		Secret:     []byte(cfg.JWT.Secret),
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	})
	if err != nil {
		return err
	}

	hasher, err := password.NewHasher(password.DefaultConfig())
	if err != nil {
		return err
	}
	pool := password.NewPool(hasher, int64(maxParallelHashes()))

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	builder := keyline.New().
		WithLogger(log).
		WithDatabase(keyline.NewDatabase(st)).
		WithEnforcer(enforcer).
		WithTokenManager(tokens).
		WithPasswordPool(pool).
		WithCache(cache.NewRedis(rdb, time.Hour)).
		WithSessionTTL(cfg.JWT.RefreshTTL)

	if cfg.Google.ClientID != "" {
		client := google.NewClient(google.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		})
		verifier := google.NewVerifier(cfg.Google.ClientID, "")
		builder = builder.WithGoogle(client, verifier)
	} else {
		log.Warn("google client id not configured, oauth login disabled")
	}

	svc, err := builder.Build()
	if err != nil {
		return err
	}

	api := httpapi.NewServer(svc, httpapi.Config{
		SuperKey:    cfg.SuperKey,
		Local:       cfg.Local(),
		Permissions: cfg.Permissions,
	}, log)

	addr := net.JoinHostPort(cfg.Server.Address, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// openDatabase picks the driver from the DSN. Anything that is not a file
// path or :memory: is treated as a postgres DSN.
func openDatabase(dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{TranslateError: true}
	if dsn == ":memory:" || isFilePath(dsn) {
		return gorm.Open(sqlite.Open(dsn), gcfg)
	}
	return gorm.Open(postgres.Open(dsn), gcfg)
}

func isFilePath(dsn string) bool {
	for _, prefix := range []string{"./", "/", "file:"} {
		if len(dsn) >= len(prefix) && dsn[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// maxParallelHashes bounds concurrent argon2 work so a login burst cannot
// exhaust memory.
func maxParallelHashes() int {
	if v := os.Getenv("KEYLINE_HASH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 4
}
