package idp

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/kerelape/bookshelf/internal/keycloak"
)

// Keycloak is the subset of the Keycloak client the identity provider uses.
type Keycloak interface {
	ExchangeUserToken(ctx context.Context, username, password string) (keycloak.Token, error)
	ExchangeAdminToken(ctx context.Context) (keycloak.Token, error)
	CreateUser(ctx context.Context, admin keycloak.Token, user keycloak.NewUser) (string, error)
	MarkEmailVerified(ctx context.Context, admin keycloak.Token, id string) error
}

// Verifier verifies bearer tokens issued by Keycloak.
type Verifier interface {
	Verify(ctx context.Context, raw string) (User, error)
}

// KeycloakIdentityProvider delegates credentials to Keycloak and keeps a
// local record of every registered user.
type KeycloakIdentityProvider struct {
	keycloak Keycloak
	database UserDatabase
	verifier Verifier
	log      zerolog.Logger
}

// NewKeycloakIdentityProvider creates a new KeycloakIdentityProvider.
func NewKeycloakIdentityProvider(client Keycloak, database UserDatabase, verifier Verifier, log zerolog.Logger) KeycloakIdentityProvider {
	return KeycloakIdentityProvider{
		keycloak: client,
		database: database,
		verifier: verifier,
		log:      log.With().Str("component", "idp").Logger(),
	}
}

// Authenticate returns the Keycloak token payload unchanged on success.
// Local state is neither read nor written.
func (k KeycloakIdentityProvider) Authenticate(ctx context.Context, credentials Credentials) (keycloak.Token, error) {
	token, exchangeError := k.keycloak.ExchangeUserToken(ctx, credentials.Username, credentials.Password)
	if exchangeError == nil {
		return token, nil
	}

	kind := Classify(exchangeError)
	if kind == KindUnknown || kind == KindMalformedProviderResponse {
		kind = KindProviderUnavailable
	}
	rejection := k.providerError(kind, exchangeError)
	k.log.Warn().
		Str("kind", kind.String()).
		Str("username", credentials.Username).
		Int("provider_status", rejection.ProviderStatus).
		Str("provider_body", rejection.Detail).
		Err(exchangeError).
		Msg("login rejected")
	return keycloak.Token{}, rejection
}

// Register runs admin token, user creation, email verification and local
// persistence in order. Nothing is rolled back: once the Keycloak user
// exists, failures are reported as OrphanedExternalUser or
// PartialRegistration instead.
func (k KeycloakIdentityProvider) Register(ctx context.Context, registration Registration) error {
	log := k.log.With().Str("username", registration.Username).Logger()

	admin, adminError := k.keycloak.ExchangeAdminToken(ctx)
	if adminError != nil {
		failure := k.providerError(KindAdminAuthFailed, adminError)
		log.Error().
			Int("provider_status", failure.ProviderStatus).
			Str("provider_body", failure.Detail).
			Err(adminError).
			Msg("admin token exchange failed")
		return failure
	}

	id, createError := k.keycloak.CreateUser(ctx, admin, keycloak.NewUser{
		Username: registration.Username,
		Email:    registration.Email,
		Password: registration.Password,
	})
	if createError != nil {
		kind := KindUserCreationFailed
		if errors.Is(createError, keycloak.ErrMalformedResponse) {
			// The user was probably created, but its id is unknown.
			kind = KindMalformedProviderResponse
		}
		failure := k.providerError(kind, createError)
		log.Error().
			Str("kind", kind.String()).
			Int("provider_status", failure.ProviderStatus).
			Str("provider_body", failure.Detail).
			Err(createError).
			Msg("keycloak user creation failed")
		return failure
	}
	log = log.With().Str("provider_user_id", id).Logger()

	verifyError := k.keycloak.MarkEmailVerified(ctx, admin, id)
	if verifyError != nil {
		log.Warn().Err(verifyError).Msg("marking email verified failed, storing user anyway")
	}

	_, createLocalError := k.database.Create(ctx, LocalUser{
		KeycloakID: id,
		Email:      registration.Email,
		Username:   registration.Username,
	})
	if createLocalError != nil {
		orphan := newError(KindOrphanedExternalUser, errors.Join(createLocalError, verifyError))
		orphan.ProviderUserID = id
		log.Error().
			Str("kind", orphan.Kind.String()).
			Bool("email_verified", verifyError == nil).
			Err(createLocalError).
			Msg("keycloak user has no local record, reconcile manually")
		return orphan
	}

	if verifyError != nil {
		partial := k.providerError(KindPartialRegistration, verifyError)
		partial.ProviderUserID = id
		log.Error().
			Str("kind", partial.Kind.String()).
			Int("provider_status", partial.ProviderStatus).
			Str("provider_body", partial.Detail).
			Msg("user registered unverified, reconcile manually")
		return partial
	}

	log.Info().Msg("user registered")
	return nil
}

// User verifies a bearer token.
func (k KeycloakIdentityProvider) User(ctx context.Context, token Token) (User, error) {
	return k.verifier.Verify(ctx, string(token))
}

func (k KeycloakIdentityProvider) providerError(kind Kind, err error) *Error {
	result := newError(kind, err)
	var providerError *keycloak.ProviderError
	if errors.As(err, &providerError) {
		result.ProviderStatus = providerError.Status
		result.Detail = string(providerError.Body)
	}
	return result
}
