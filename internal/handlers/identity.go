package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"freelance/internal/common"
	"freelance/internal/common/security"
	"freelance/internal/core"
	"freelance/models"
)

type contextKey string

const identityCtxKey contextKey = "identity"

// Authenticator проверяет JWT из Authorization и кладет Identity в контекст.
// Дальше личность передается в ядро только явным параметром.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, common.ErrUnauthenticated.Error())
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		username, err := security.GetUsernameFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		role, err := security.GetUserRoleFromClaims(claims)
		if err != nil || !models.Role(role).Valid() {
			common.RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}

		identity := core.Identity{ID: userID, Username: username, Role: models.Role(role)}
		ctx := context.WithValue(r.Context(), identityCtxKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFromContext достает аутентифицированного пользователя запроса
func IdentityFromContext(ctx context.Context) (core.Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey).(core.Identity)
	return identity, ok
}

// WithIdentity кладет Identity в контекст запроса, используется в тестах
func WithIdentity(r *http.Request, identity core.Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), identityCtxKey, identity))
}

// requireIdentity служит общим входом каждого защищенного хендлера
func requireIdentity(w http.ResponseWriter, r *http.Request) (core.Identity, bool) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, common.ErrUnauthenticated.Error())
		return core.Identity{}, false
	}
	return identity, true
}
