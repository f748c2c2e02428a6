package keycloak

// NewUser is the profile of a user to be created.
type NewUser struct {
	Username string
	Email    string
	Password string
}

// UserRepresentation is the body of the admin create-user request.
type UserRepresentation struct {
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	Enabled     bool         `json:"enabled"`
	Credentials []Credential `json:"credentials"`
}

type Credential struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

// VerificationUpdate is the body of the admin update-user request that
// makes an account usable right away.
type VerificationUpdate struct {
	EmailVerified   bool     `json:"emailVerified"`
	RequiredActions []string `json:"requiredActions"`
}
