package idp

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const minKeyRefreshInterval = 30 * time.Second

// KeycloakVerifier verifies RS256 access tokens issued by a Keycloak realm.
// Signing keys are fetched from the realm's JWKS on first use and again
// whenever a token names a key that is not known yet. Lookups of known keys
// never wait for a fetch in progress.
type KeycloakVerifier struct {
	certsURL string
	issuer   string
	client   *http.Client

	mu   sync.RWMutex
	keys map[string]*rsa.PublicKey

	refreshMu       sync.Mutex
	refreshedAt     time.Time
	refreshInterval time.Duration
}

// NewKeycloakVerifier creates a new KeycloakVerifier.
func NewKeycloakVerifier(address, realm, issuer string, client *http.Client) *KeycloakVerifier {
	return &KeycloakVerifier{
		certsURL: address + "/realms/" + realm + "/protocol/openid-connect/certs",
		issuer:   issuer,
		client:   client,
		keys:     map[string]*rsa.PublicKey{},

		refreshInterval: minKeyRefreshInterval,
	}
}

type accessClaims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
}

// Verify checks the signature, issuer and expiry of a bearer token.
func (v *KeycloakVerifier) Verify(ctx context.Context, raw string) (User, error) {
	rawToken, hasPrefix := strings.CutPrefix(raw, "Bearer ")
	if !hasPrefix || rawToken == "" {
		return User{}, ErrBadCredentials
	}

	claims := accessClaims{}
	_, parseError := jwt.ParseWithClaims(
		rawToken,
		&claims,
		func(token *jwt.Token) (interface{}, error) {
			kid, _ := token.Header["kid"].(string)
			return v.key(ctx, kid)
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if parseError != nil {
		return User{}, fmt.Errorf("%w: %w", ErrBadCredentials, parseError)
	}
	if claims.Subject == "" {
		return User{}, ErrBadCredentials
	}

	return User{
		ID:       claims.Subject,
		Username: claims.PreferredUsername,
		Email:    claims.Email,
	}, nil
}

func (v *KeycloakVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	v.mu.RUnlock()
	if ok {
		return key, nil
	}

	if err := v.refresh(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	key, ok = v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return key, nil
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (v *KeycloakVerifier) refresh(ctx context.Context) error {
	v.refreshMu.Lock()
	defer v.refreshMu.Unlock()
	if !v.refreshedAt.IsZero() && time.Since(v.refreshedAt) < v.refreshInterval {
		return nil
	}

	keys, fetchError := v.fetch(ctx)
	if fetchError != nil {
		return fetchError
	}

	v.mu.Lock()
	v.keys = keys
	v.mu.Unlock()
	v.refreshedAt = time.Now()
	return nil
}

func (v *KeycloakVerifier) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	out, outError := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, http.NoBody)
	if outError != nil {
		return nil, outError
	}
	in, doError := v.client.Do(out)
	if doError != nil {
		return nil, fmt.Errorf("fetch realm keys: %w", doError)
	}
	defer in.Body.Close()
	if in.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch realm keys: unexpected status %d", in.StatusCode)
	}

	var document struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(in.Body).Decode(&document); err != nil {
		return nil, fmt.Errorf("decode realm keys: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(document.Keys))
	for _, k := range document.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		key, keyError := rsaPublicKey(k)
		if keyError != nil {
			return nil, keyError
		}
		keys[k.Kid] = key
	}
	return keys, nil
}

func rsaPublicKey(k jwk) (*rsa.PublicKey, error) {
	n, nError := base64.RawURLEncoding.DecodeString(k.N)
	if nError != nil {
		return nil, fmt.Errorf("decode modulus of key %q: %w", k.Kid, nError)
	}
	e, eError := base64.RawURLEncoding.DecodeString(k.E)
	if eError != nil {
		return nil, fmt.Errorf("decode exponent of key %q: %w", k.Kid, eError)
	}
	exponent := new(big.Int).SetBytes(e)
	if !exponent.IsInt64() || exponent.Int64() < 2 {
		return nil, errors.New("invalid exponent of key " + k.Kid)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(exponent.Int64()),
	}, nil
}
