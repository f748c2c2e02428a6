package keycloak

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseBody = 1 << 20

var tracer = otel.Tracer("github.com/kerelape/bookshelf/internal/keycloak")

// Config holds the addresses and credentials used to talk to Keycloak.
type Config struct {
	Address      string
	Realm        string
	ClientID     string
	ClientSecret string

	AdminRealm    string
	AdminClientID string
	AdminUsername string
	AdminPassword string
}

// Observer receives the outcome and latency of every Keycloak request.
type Observer interface {
	ObserveKeycloakRequest(operation, outcome string, elapsed time.Duration)
}

// Client issues token and admin requests against a Keycloak server.
// It keeps no state between calls and never retries.
type Client struct {
	Config   Config
	Client   *http.Client
	Observer Observer
}

// New creates a new Client.
func New(config Config, client *http.Client) Client {
	return Client{
		Config: config,
		Client: client,
	}
}

// ExchangeUserToken exchanges end-user credentials for a token using the
// resource-owner password grant of the configured client.
func (c Client) ExchangeUserToken(ctx context.Context, username, password string) (Token, error) {
	form := url.Values{
		"client_id":     {c.Config.ClientID},
		"client_secret": {c.Config.ClientSecret},
		"grant_type":    {"password"},
		"username":      {username},
		"password":      {password},
	}
	return c.exchangeToken(ctx, "user_token", c.Config.Realm, form)
}

// ExchangeAdminToken obtains an administrative token from the admin realm.
func (c Client) ExchangeAdminToken(ctx context.Context) (Token, error) {
	form := url.Values{
		"client_id":  {c.Config.AdminClientID},
		"username":   {c.Config.AdminUsername},
		"password":   {c.Config.AdminPassword},
		"grant_type": {"password"},
	}
	return c.exchangeToken(ctx, "admin_token", c.Config.AdminRealm, form)
}

// CreateUser creates an enabled user with a non-temporary password and
// returns the id Keycloak assigned to it.
func (c Client) CreateUser(ctx context.Context, admin Token, user NewUser) (string, error) {
	ctx, span := tracer.Start(ctx, "keycloak.create_user")
	defer span.End()

	representation := UserRepresentation{
		Username: user.Username,
		Email:    user.Email,
		Enabled:  true,
		Credentials: []Credential{
			{Type: "password", Value: user.Password, Temporary: false},
		},
	}
	in, doError := c.doJSON(ctx, "create_user", http.MethodPost, c.usersURL(), admin, representation)
	if doError != nil {
		recordError(span, doError)
		return "", doError
	}

	id, idError := userIDFromLocation(in.Header.Get("Location"))
	if idError != nil {
		recordError(span, idError)
		return "", idError
	}
	span.SetAttributes(attribute.String("keycloak.user_id", id))
	return id, nil
}

// MarkEmailVerified marks the user's email as verified and clears any
// required actions. Repeating the call leaves the user in the same state.
func (c Client) MarkEmailVerified(ctx context.Context, admin Token, id string) error {
	ctx, span := tracer.Start(ctx, "keycloak.mark_email_verified", trace.WithAttributes(
		attribute.String("keycloak.user_id", id),
	))
	defer span.End()

	update := VerificationUpdate{
		EmailVerified:   true,
		RequiredActions: []string{},
	}
	target := c.usersURL() + "/" + url.PathEscape(id)
	if _, err := c.doJSON(ctx, "mark_email_verified", http.MethodPut, target, admin, update); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func (c Client) exchangeToken(ctx context.Context, operation, realm string, form url.Values) (Token, error) {
	ctx, span := tracer.Start(ctx, "keycloak."+operation, trace.WithAttributes(
		attribute.String("keycloak.realm", realm),
	))
	defer span.End()

	target := c.Config.Address + "/realms/" + url.PathEscape(realm) + "/protocol/openid-connect/token"
	out, outError := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if outError != nil {
		return Token{}, outError
	}
	out.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, body, doError := c.do(operation, out)
	if doError != nil {
		recordError(span, doError)
		return Token{}, doError
	}

	token, parseError := ParseToken(body)
	if parseError != nil {
		recordError(span, parseError)
		return Token{}, parseError
	}
	return token, nil
}

func (c Client) doJSON(ctx context.Context, operation, method, target string, admin Token, payload any) (*http.Response, error) {
	encoded, marshalError := json.Marshal(payload)
	if marshalError != nil {
		return nil, marshalError
	}
	out, outError := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(encoded))
	if outError != nil {
		return nil, outError
	}
	out.Header.Set("Content-Type", "application/json")
	out.Header.Set("Authorization", "Bearer "+admin.AccessToken)

	in, _, doError := c.do(operation, out)
	return in, doError
}

// do sends the request and reads the whole body. A transport failure is
// reported as ErrUnavailable, a non-2xx status as *ProviderError.
func (c Client) do(operation string, out *http.Request) (*http.Response, []byte, error) {
	started := time.Now()
	in, doError := c.Client.Do(out)
	if doError != nil {
		c.observe(operation, "unavailable", started)
		return nil, nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, out.Method, out.URL.Path, doError)
	}
	defer in.Body.Close()

	body, readError := io.ReadAll(io.LimitReader(in.Body, maxResponseBody))
	if readError != nil {
		c.observe(operation, "unavailable", started)
		return nil, nil, fmt.Errorf("%w: reading response: %w", ErrUnavailable, readError)
	}

	if in.StatusCode < 200 || in.StatusCode > 299 {
		c.observe(operation, "rejected", started)
		return in, body, &ProviderError{Status: in.StatusCode, Body: body}
	}
	c.observe(operation, "ok", started)
	return in, body, nil
}

func (c Client) observe(operation, outcome string, started time.Time) {
	if c.Observer != nil {
		c.Observer.ObserveKeycloakRequest(operation, outcome, time.Since(started))
	}
}

func (c Client) usersURL() string {
	return c.Config.Address + "/admin/realms/" + url.PathEscape(c.Config.Realm) + "/users"
}

// userIDFromLocation extracts the final path segment of the Location header
// returned for a created user.
func userIDFromLocation(location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("%w: missing Location header", ErrMalformedResponse)
	}
	parsed, parseError := url.Parse(location)
	if parseError != nil {
		return "", fmt.Errorf("%w: bad Location header %q: %w", ErrMalformedResponse, location, parseError)
	}
	segments := strings.Split(strings.TrimRight(parsed.Path, "/"), "/")
	id := segments[len(segments)-1]
	if id == "" || id == "users" {
		return "", fmt.Errorf("%w: no user id in Location header %q", ErrMalformedResponse, location)
	}
	unescaped, unescapeError := url.PathUnescape(id)
	if unescapeError != nil {
		return "", fmt.Errorf("%w: bad user id in Location header %q", ErrMalformedResponse, location)
	}
	return unescaped, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	var providerError *ProviderError
	if errors.As(err, &providerError) {
		span.SetAttributes(attribute.Int("http.response.status_code", providerError.Status))
	}
	span.SetStatus(codes.Error, err.Error())
}
