package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/caremesh/caremesh-backend/api/responses"
	"github.com/caremesh/caremesh-backend/pkg/enums"
	pkgerrors "github.com/caremesh/caremesh-backend/pkg/errors"
	"github.com/caremesh/caremesh-backend/pkg/logger"
)

const (
	userIDHeader   = "X-User-Id"
	userRoleHeader = "X-User-Role"
	clinicIDHeader = "X-Clinic-Id"
)

// Actor reads the identity headers set by the edge proxy and places the
// authenticated actor on the request context. Requests without a valid
// user id are rejected; the clinic header is optional.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := r.Header.Get(userIDHeader)
			if _, err := uuid.Parse(userID); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing or invalid user identity"))
				return
			}

			role, err := enums.ParseUserRole(r.Header.Get(userRoleHeader))
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing or invalid actor role"))
				return
			}

			ctx = WithUserID(ctx, userID)
			ctx = WithRole(ctx, string(role))

			if clinicID := r.Header.Get(clinicIDHeader); clinicID != "" {
				if _, err := uuid.Parse(clinicID); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid clinic identifier"))
					return
				}
				ctx = WithClinicID(ctx, clinicID)
			}

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id": userID,
					"role":    string(role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
