package middleware

import (
	"context"
	"net/http"
	"strings"

	"tour-booking-api/internal/handler"
	"tour-booking-api/internal/model"
	"tour-booking-api/internal/service"
	"tour-booking-api/pkg/apierror"
)

type tokenVerifier interface {
	Verify(tokenString string) (service.Claims, error)
}

type userLoader interface {
	LoadByID(ctx context.Context, id string) (*model.User, error)
}

// AuthMiddleware resolves the current user from a bearer token or the jwt
// cookie and gates routes on authentication and role.
type AuthMiddleware struct {
	tokens tokenVerifier
	users  userLoader
}

func NewAuthMiddleware(tokens tokenVerifier, users userLoader) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Protect rejects the request unless it carries a valid token for a user that
// still exists and has not changed their password since the token was issued.
func (m *AuthMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			handler.WriteError(w, r, apierror.New("You are not logged in! Please log in to get access.", http.StatusUnauthorized))
			return
		}

		user, err := m.resolve(r.Context(), token)
		if err != nil {
			handler.WriteError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(model.WithUser(r.Context(), user)))
	})
}

// Optional resolves the current user when a valid token is present but never
// rejects the request. A stale or invalid cookie is cleared so clients stop
// resending it.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.resolve(r.Context(), token)
		if err != nil {
			if _, cookieErr := r.Cookie("jwt"); cookieErr == nil {
				http.SetCookie(w, &http.Cookie{
					Name:     "jwt",
					Value:    "",
					Path:     "/",
					MaxAge:   -1,
					HttpOnly: true,
				})
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(model.WithUser(r.Context(), user)))
	})
}

// RequireRoles allows the request through only when the authenticated user
// holds one of the given roles. It must run after Protect.
func (m *AuthMiddleware) RequireRoles(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := model.UserFromContext(r.Context())
			if !ok {
				handler.WriteError(w, r, apierror.New("You are not logged in! Please log in to get access.", http.StatusUnauthorized))
				return
			}
			if _, exists := allowed[user.Role]; !exists {
				handler.WriteError(w, r, apierror.New("You do not have permission to perform this action", http.StatusForbidden))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *AuthMiddleware) resolve(ctx context.Context, token string) (*model.User, error) {
	claims, err := m.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := m.users.LoadByID(ctx, claims.Subject)
	if err != nil {
		return nil, apierror.New("The user belonging to this token does no longer exist.", http.StatusUnauthorized)
	}

	if user.PasswordChangedAfter(claims.IssuedAt) {
		return nil, apierror.New("User recently changed password! Please log in again.", http.StatusUnauthorized)
	}
	return user, nil
}

func extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if cookie, err := r.Cookie("jwt"); err == nil {
		return cookie.Value
	}
	return ""
}
