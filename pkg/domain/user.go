package domain

// User is the admin view of an account.
type User struct {
	ID                int    `json:"id"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Email             string `json:"email"`
	MobileNumber      string `json:"mobileNumber,omitempty"`
	Role              string `json:"role"`
	IsActive          bool   `json:"isActive"`
	IsVerified        bool   `json:"isVerified"`
}

// CreateUserRequest creates an unverified account; the API mails an OTP to Email.
type CreateUserRequest struct {
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	MobileNumber      string `json:"mobileNumber,omitempty"`
	Role              string `json:"role"`
}

// UpdateUserRequest is a partial update; nil fields are left unchanged.
type UpdateUserRequest struct {
	ProfilePictureURL *string `json:"profilePictureUrl,omitempty"`
	FirstName         *string `json:"firstName,omitempty"`
	LastName          *string `json:"lastName,omitempty"`
	MobileNumber      *string `json:"mobileNumber,omitempty"`
	Role              *string `json:"role,omitempty"`
	IsActive          *bool   `json:"isActive,omitempty"`
	IsVerified        *bool   `json:"isVerified,omitempty"`
	Password          *string `json:"password,omitempty"`
}

// Profile is the logged-in user's own record.
type Profile struct {
	ID                int    `json:"id"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Email             string `json:"email"`
	MobileNumber      string `json:"mobileNumber,omitempty"`
	ProfilePictureURL string `json:"profilePictureUrl,omitempty"`
	IsActive          bool   `json:"isActive"`
	IsVerified        bool   `json:"isVerified"`
	// CreatedAt is passed through verbatim; the API emits naive ISO-8601 timestamps.
	CreatedAt string `json:"createdAt,omitempty"`
}

// OTPVerification confirms an account created by an administrator.
type OTPVerification struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}
