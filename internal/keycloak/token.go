package keycloak

import (
	"encoding/json"
	"fmt"
)

// Token is a token endpoint response. Raw keeps the payload exactly as
// Keycloak sent it so it can be handed to clients untouched.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`

	Raw json.RawMessage `json:"-"`
}

// ParseToken decodes a token endpoint response.
func ParseToken(payload []byte) (Token, error) {
	token := Token{}
	if err := json.Unmarshal(payload, &token); err != nil {
		return Token{}, fmt.Errorf("%w: token response: %w", ErrMalformedResponse, err)
	}
	if token.AccessToken == "" {
		return Token{}, fmt.Errorf("%w: token response has no access_token", ErrMalformedResponse)
	}
	token.Raw = append(json.RawMessage(nil), payload...)
	return token, nil
}
