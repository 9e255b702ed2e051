package middleware

import (
	"net/http"

	"github.com/angelmondragon/bazary-backend/api/responses"
	pkgerrors "github.com/angelmondragon/bazary-backend/pkg/errors"
	"github.com/angelmondragon/bazary-backend/pkg/logger"
)

type registrationChecker interface {
	IsRegistered() bool
}

// RequireRegistration blocks the merchant routes until the operator profile is registered.
func RequireRegistration(gate registrationChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gate != nil && !gate.IsRegistered() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRegistration, "complete registration in settings first"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
