package dto

// Error is the standard error envelope.
type Error struct {
	Error string `json:"error" example:"error message"`
}

// EmailVerificationError tells the client to offer re-verification.
type EmailVerificationError struct {
	Error                     string `json:"error" example:"Email address is not verified"`
	EmailVerificationRequired bool   `json:"email_verification_required" example:"true"`
	Email                     string `json:"email" example:"user@example.com"`
}
