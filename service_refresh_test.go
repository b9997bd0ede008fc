package keyline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/keyline-auth/keyline/google"
)

func TestRefreshUnknownProvider(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RefreshToken(context.Background(), "github", "rt")
	if !errors.Is(err, ErrInvalidProvider) {
		t.Fatalf("err = %v, want ErrInvalidProvider", err)
	}
}

func TestRefreshGoogle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.getOrCreateSession(ctx, "u1", ProviderGoogle, "old-at", "old-rt"); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	f.google.refreshed = &google.Token{
		AccessToken: "new-at",
		IDToken:     "new-idt",
	}

	pair, err := f.svc.RefreshToken(ctx, ProviderGoogle, "old-rt")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.AccessToken != "new-idt" {
		t.Fatalf("access token = %q, want the fresh id_token", pair.AccessToken)
	}
	// Google often omits the refresh token on refresh; the stored one is kept.
	if pair.RefreshToken != "old-rt" {
		t.Fatalf("refresh token = %q, want old-rt", pair.RefreshToken)
	}

	sess, err := f.db.SessionByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if sess.AccessToken != "new-at" {
		t.Fatal("expected session updated with the new provider access token")
	}
}

func TestRefreshGoogleUnknownToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RefreshToken(context.Background(), ProviderGoogle, "ghost-rt")
	if !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("err = %v, want ErrSessionInvalid", err)
	}
}

func TestRefreshGoogleExpiredBeforeNetworkCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.getOrCreateSession(ctx, "u1", ProviderGoogle, "at", "rt"); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	f.clock = f.clock.Add(f.svc.sessionTTL + time.Second)

	_, err := f.svc.RefreshToken(ctx, ProviderGoogle, "rt")
	if !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("err = %v, want ErrRefreshTokenExpired", err)
	}
	if f.google.refreshCalls != 0 {
		t.Fatalf("provider calls = %d, want 0 for an expired session", f.google.refreshCalls)
	}
}

func TestRefreshEmail(t *testing.T) {
	f := newFixture(t)
	f.seedDefaultRole(t)
	ctx := context.Background()

	if _, err := f.svc.RegisterWithPassword(ctx, "a@x.com", "longenough1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	first, err := f.svc.LoginWithPassword(ctx, "a@x.com", "longenough1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	pair, err := f.svc.RefreshToken(ctx, ProviderEmail, first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("pair = %+v", pair)
	}
	if _, err := f.svc.tokens.ParseAccess(pair.AccessToken); err != nil {
		t.Fatalf("parse refreshed access token: %v", err)
	}
}

func TestRefreshEmailTamperedToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RefreshToken(context.Background(), ProviderEmail, "not-a-jwt")
	if !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("err = %v, want ErrRefreshTokenExpired for any verification failure", err)
	}
}

func TestRefreshEmailExpiredSession(t *testing.T) {
	f := newFixture(t)
	f.seedDefaultRole(t)
	ctx := context.Background()

	if _, err := f.svc.RegisterWithPassword(ctx, "a@x.com", "longenough1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	pair, err := f.svc.LoginWithPassword(ctx, "a@x.com", "longenough1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	f.clock = f.clock.Add(f.svc.sessionTTL + time.Second)

	if _, err := f.svc.RefreshToken(ctx, ProviderEmail, pair.RefreshToken); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("err = %v, want ErrRefreshTokenExpired", err)
	}
}
