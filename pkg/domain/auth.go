package domain

// Credentials is the body of both login endpoints.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the success body of the login and refresh endpoints.
// Tokens live in server-set cookies; the body copies are not stored.
type AuthResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	Role         string   `json:"role,omitempty"`
	Type         UserType `json:"type,omitempty"`
}

// CheckResponse is the body of the session probe.
type CheckResponse struct {
	Valid  bool     `json:"valid"`
	UserID string   `json:"user_id,omitempty"`
	Role   string   `json:"role,omitempty"`
	Type   UserType `json:"type,omitempty"`
}

// MessageResponse is the generic {"message": ...} body used for errors and acknowledgements.
type MessageResponse struct {
	Message string `json:"message"`
}
