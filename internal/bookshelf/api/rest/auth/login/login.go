package login

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
	RecordLogin(outcome string)
}

type Login struct {
	idp      idp.IdentityProvider
	recorder Recorder
}

func New(idp idp.IdentityProvider, recorder Recorder) Login {
	return Login{
		idp:      idp,
		recorder: recorder,
	}
}

func (l Login) Route() http.Handler {
	router := chi.NewRouter()
	router.Post("/", l.ServeHTTP)
	return router
}

func (l Login) ServeHTTP(out http.ResponseWriter, in *http.Request) {
	var request idp.Credentials
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

	token, authenticateError := l.idp.Authenticate(in.Context(), request)
	if authenticateError != nil {
		kind := idp.KindOf(authenticateError)
		l.recorder.RecordLogin(kind.String())
		switch kind {
		case idp.KindInvalidCredentials:
			response.Problem(out, in, http.StatusUnauthorized, "", "Invalid credentials")
		case idp.KindAccountSetupIncomplete:
			response.Problem(out, in, http.StatusForbidden, "Account Setup Incomplete", message(authenticateError))
		case idp.KindProviderUnavailable:
			response.Problem(out, in, http.StatusServiceUnavailable, "", message(authenticateError))
		default:
			hlog.FromRequest(in).Error().Err(authenticateError).Msg("login failed")
			response.Status(out, in, http.StatusInternalServerError)
		}
		return
	}

	l.recorder.RecordLogin("ok")
	out.Header().Set("Content-Type", "application/json")
	out.WriteHeader(http.StatusOK)
	if _, err := out.Write(token.Raw); err != nil {
		hlog.FromRequest(in).Error().Err(err).Msg("failed to write token")
	}
}

func message(err error) string {
	var idpError *idp.Error
	if errors.As(err, &idpError) {
		return idpError.Message
	}
	return http.StatusText(http.StatusInternalServerError)
}
