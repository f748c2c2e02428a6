package register

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/kerelape/bookshelf/internal/bookshelf/api/rest/response"
	"github.com/kerelape/bookshelf/internal/bookshelf/idp"
	"github.com/kerelape/bookshelf/internal/validation"
)

type Recorder interface {
	RecordRegistration(outcome string)
}

type Register struct {
	identityProvider idp.IdentityProvider
	recorder         Recorder
}

// New creates a new Register.
func New(identityProvider idp.IdentityProvider, recorder Recorder) Register {
	return Register{
		identityProvider: identityProvider,
		recorder:         recorder,
	}
}

func (r Register) Route() http.Handler {
	router := chi.NewRouter()
	router.Post("/", r.ServeHTTP)
	return router
}

func (r Register) ServeHTTP(out http.ResponseWriter, in *http.Request) {
	var request idp.Registration
	decoder := json.NewDecoder(in.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		response.Status(out, in, http.StatusBadRequest)
		return
	}
	if err := validation.Validate(request); err != nil {
		var validationError *validation.Error
		if errors.As(err, &validationError) {
			response.Problem(out, in, http.StatusBadRequest, "", validationError.Messages())
			return
		}
		response.Status(out, in, http.StatusBadRequest)
		return
	}

	registerError := r.identityProvider.Register(in.Context(), request)
	if registerError == nil {
		r.recorder.RecordRegistration("ok")
		response.JSON(out, in, http.StatusCreated, map[string]string{
			"message": "User registered successfully",
		})
		return
	}

	var idpError *idp.Error
	if !errors.As(registerError, &idpError) {
		r.recorder.RecordRegistration(idp.KindUnknown.String())
		hlog.FromRequest(in).Error().Err(registerError).Msg("registration failed")
		response.Problem(out, in, http.StatusInternalServerError, "", "Registration failed, please check server logs.")
		return
	}

	r.recorder.RecordRegistration(idpError.Kind.String())
	if idpError.Kind.NeedsReconciliation() {
		hlog.FromRequest(in).Error().
			Str("kind", idpError.Kind.String()).
			Str("provider_user_id", idpError.ProviderUserID).
			Str("username", request.Username).
			Msg("registration needs reconciliation")
	}
	switch {
	case idpError.Kind == idp.KindPartialRegistration:
		response.Problem(out, in, http.StatusAccepted, "Partial Registration", idpError.Message)
	case idpError.Kind == idp.KindOrphanedExternalUser:
		response.Problem(out, in, http.StatusConflict, "Orphaned External User", idpError.Message)
	case idpError.Conflict():
		response.Problem(out, in, http.StatusConflict, "", "User already exists")
	case idpError.Kind == idp.KindAdminAuthFailed,
		idpError.Kind == idp.KindUserCreationFailed,
		idpError.Kind == idp.KindMalformedProviderResponse:
		response.Problem(out, in, http.StatusBadGateway, "", idpError.Message)
	case idpError.Kind == idp.KindProviderUnavailable:
		response.Problem(out, in, http.StatusServiceUnavailable, "", idpError.Message)
	default:
		response.Problem(out, in, http.StatusInternalServerError, "", "Registration failed, please check server logs.")
	}
}
