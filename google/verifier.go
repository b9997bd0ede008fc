package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/keyline-auth/keyline/cache"
)

const defaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// jwksTTL is how long a fetched key set is served before refetching. A key
// rotated inside the window fails verification until the set expires.
const jwksTTL = time.Hour

// ErrInvalidToken is returned for any ID token that fails verification:
// bad signature, unknown key id, wrong audience or issuer, or expiry.
var ErrInvalidToken = errors.New("invalid id token")

// IDClaims is the subset of Google ID-token claims the engine consumes.
type IDClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

// Verifier validates Google-issued ID tokens against the JWKS endpoint,
// caching the key set between fetches.
type Verifier struct {
	audience string
	jwksURL  string
	keys     *cache.Memo[map[string]*rsa.PublicKey]
	client   *http.Client
}

// NewVerifier builds a verifier for tokens issued to clientID. jwksURL is
// overridable for tests; empty means Google's production endpoint.
func NewVerifier(clientID, jwksURL string) *Verifier {
	if jwksURL == "" {
		jwksURL = defaultJWKSURL
	}
	v := &Verifier{
		audience: clientID,
		jwksURL:  jwksURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	v.keys = cache.NewMemo(jwksTTL, v.fetchKeys)
	return v
}

// Verify checks signature, audience, issuer and expiry of idToken and
// returns its claims. All failures collapse to ErrInvalidToken.
func (v *Verifier) Verify(ctx context.Context, idToken string) (*IDClaims, error) {
	keys, err := v.keys.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}

	claims := &IDClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	token, err := parser.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Issuer != "https://accounts.google.com" && claims.Issuer != "accounts.google.com" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type jwksDocument struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

// fetchKeys downloads the JWKS document and builds the kid to key map. The
// returned map replaces the previous set wholesale.
func (v *Verifier) fetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Code: fmt.Sprintf("jwks_status_%d", resp.StatusCode)}
	}

	var doc jwksDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := parseRSAKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, errors.New("jwks document contains no usable keys")
	}
	return keys, nil
}

func parseRSAKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, err
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(new(big.Int).SetBytes(eb).Int64()),
	}, nil
}
