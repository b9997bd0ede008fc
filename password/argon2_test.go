package password

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func testHasher(t *testing.T) *Hasher {
	t.Helper()

	cfg := DefaultConfig()
	// smallest legal cost so the suite stays fast
	cfg.Memory = minMemoryKB
	cfg.Time = 1
	cfg.Parallelism = 1

	h, err := NewHasher(cfg)
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	return h
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := testHasher(t)

	encoded, err := h.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected hash prefix: %s", encoded)
	}

	ok, err := h.Verify("correct horse battery", encoded)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("wrong password", encoded)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch for wrong password")
	}
}

func TestHashesAreSalted(t *testing.T) {
	h := testHasher(t)

	a, err := h.Hash("same input")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := h.Hash("same input")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a == b {
		t.Fatal("expected distinct salts to produce distinct encodings")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	h := testHasher(t)

	cases := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$aGFzaA",
	}
	for _, encoded := range cases {
		if _, err := h.Verify("x", encoded); !errors.Is(err, ErrHashFormat) {
			t.Fatalf("expected ErrHashFormat for %q, got %v", encoded, err)
		}
	}
}

func TestNewHasherRejectsWeakParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Memory = 1024
	if _, err := NewHasher(cfg); err == nil {
		t.Fatal("expected error for low memory cost")
	}

	cfg = DefaultConfig()
	cfg.SaltLength = 8
	if _, err := NewHasher(cfg); err == nil {
		t.Fatal("expected error for short salt")
	}
}

func TestPoolRoundTrip(t *testing.T) {
	p := NewPool(testHasher(t), 2)

	encoded, err := p.Hash(context.Background(), "pool password")
	if err != nil {
		t.Fatalf("pool Hash failed: %v", err)
	}

	ok, err := p.Verify(context.Background(), "pool password", encoded)
	if err != nil || !ok {
		t.Fatalf("expected pool verify match, ok=%v err=%v", ok, err)
	}
}

func TestPoolHonoursCancelledContext(t *testing.T) {
	p := NewPool(testHasher(t), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Hash(ctx, "never"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
