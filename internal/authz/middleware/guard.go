package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"classhub/internal/authz"
	"classhub/internal/domain"
	"classhub/internal/platform/telemetry"
)

// AuthHandler is a handler that receives the resolved AuthContext explicitly.
// Handlers never see authorization errors; they are only invoked once the
// guard has allowed the request.
type AuthHandler func(w http.ResponseWriter, r *http.Request, ac domain.AuthContext)

// Guard runs the per-request authorization pipeline: session verification,
// principal loading, then role policy. Each stage short-circuits into a
// terminal response; none is retried, since authentication and authorization
// failures are never transient.
type Guard struct {
	verifier authz.SessionVerifier
	loader   *authz.PrincipalLoader
	metrics  *telemetry.Metrics
}

// NewGuard creates a guard. The metrics parameter is optional; pass nil to
// skip metric recording.
func NewGuard(verifier authz.SessionVerifier, loader *authz.PrincipalLoader, m *telemetry.Metrics) *Guard {
	return &Guard{verifier: verifier, loader: loader, metrics: m}
}

// Protect wraps a handler for one operation with its declared allowed-role
// set. The set is fixed at registration; an empty set is a configuration
// error and fails closed on every request.
func (g *Guard) Protect(operation string, allowed []domain.Role, h AuthHandler) http.Handler {
	if len(allowed) == 0 {
		slog.Error("operation registered with empty allowed-role set, all requests will be denied",
			"operation", operation)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		subject, err := g.verifier.Subject(ctx, r)
		if err != nil {
			g.decide(r, operation, "unauthenticated")
			writeGuardError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		principal, err := g.loader.ResolvePrincipal(ctx, subject)
		g.recordLoad(ctx, err)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrUnauthenticated):
				g.decide(r, operation, "unauthenticated")
				writeGuardError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			case errors.Is(err, domain.ErrTenantMissing):
				// Incomplete provisioning, not a security denial. Surfaced as
				// absence so nothing about the account leaks.
				slog.Warn("principal has no tenant linkage", "operation", operation)
				g.decide(r, operation, "tenant_fault")
				writeGuardError(w, http.StatusNotFound, "not_found", "user context not found")
			default:
				slog.Error("principal resolution failed", "error", err, "operation", operation)
				g.decide(r, operation, "error")
				writeGuardError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
			}
			return
		}

		if len(allowed) == 0 || authz.Authorize(principal.Role, allowed) == authz.Deny {
			g.decide(r, operation, "forbidden")
			writeGuardError(w, http.StatusForbidden, "forbidden", "insufficient role")
			return
		}

		g.decide(r, operation, "allow")
		ac := domain.NewAuthContext(principal)
		r = r.WithContext(authz.ContextWithAuthContext(ctx, ac))
		h(w, r, ac)
	})
}

func (g *Guard) recordLoad(ctx context.Context, err error) {
	if g.metrics == nil {
		return
	}
	result := "success"
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		result = "not_found"
	case errors.Is(err, domain.ErrTenantMissing):
		result = "tenant_missing"
	case err != nil:
		result = "error"
	}
	g.metrics.RecordPrincipalLoad(ctx, result)
}

func (g *Guard) decide(r *http.Request, operation, outcome string) {
	if g.metrics != nil {
		g.metrics.RecordAuthzDecision(r.Context(), operation, outcome)
	}
}

func writeGuardError(w http.ResponseWriter, status int, errCode, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(domain.ErrorResponse{
		Error:   errCode,
		Message: msg,
	}); err != nil {
		slog.Error("encoding error response", "error", err)
	}
}
