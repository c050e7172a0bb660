package domain

import "errors"

// Sentinel errors used across service boundaries.
var (
	// ErrUnauthenticated covers both a missing/invalid session and a verified
	// identity with no provisioned domain account.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrTenantMissing marks a provisioned account with no tenant linkage.
	// This is a data-integrity fault (broken onboarding), not a denial.
	ErrTenantMissing = errors.New("user has no tenant")

	// ErrForbidden marks a role outside the operation's allowed set.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound covers genuinely missing resources and resources outside
	// the caller's scope; the two are intentionally indistinguishable.
	ErrNotFound = errors.New("not found")

	ErrInvalidToken = errors.New("invalid token")
	ErrRateLimited  = errors.New("rate limited")
)

// ErrorResponse is the standard JSON error envelope returned to clients.
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}
