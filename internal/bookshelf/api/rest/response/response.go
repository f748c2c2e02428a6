// Package response writes JSON responses. Errors have the shape:
//
//	{"statusCode": 403, "error": "Account Setup Incomplete", "message": "...", "timestamp": "..."}
package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"
)

type problemBody struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    any    `json:"message"`
	Timestamp  string `json:"timestamp"`
}

// Problem writes a problem with the given status. An empty title defaults to
// the status text.
func Problem(out http.ResponseWriter, in *http.Request, status int, title string, message any) {
	if title == "" {
		title = http.StatusText(status)
	}
	JSON(out, in, status, problemBody{
		StatusCode: status,
		Error:      title,
		Message:    message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Status writes a problem whose message is the status text.
func Status(out http.ResponseWriter, in *http.Request, status int) {
	Problem(out, in, status, "", http.StatusText(status))
}

// JSON encodes body as the response.
func JSON(out http.ResponseWriter, in *http.Request, status int, body any) {
	out.Header().Set("Content-Type", "application/json")
	out.WriteHeader(status)
	if err := json.NewEncoder(out).Encode(body); err != nil {
		hlog.FromRequest(in).Error().Err(err).Msg("failed to write response")
	}
}
