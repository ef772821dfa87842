package mw

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"cafehub/internal/model"
)

type contextKey string

const (
	UserCtxKey contextKey = "user_id"
	NameCtxKey contextKey = "user_name"
	RoleCtxKey contextKey = "user_role"
)

// Auth validates the bearer token and stores identity claims in the
// request context.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid token format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "invalid claims", http.StatusInternalServerError)
				return
			}

			userID, _ := claims["user_id"].(string)
			name, _ := claims["name"].(string)
			role, _ := claims["role"].(string)
			if userID == "" || role == "" {
				http.Error(w, "incomplete token claims", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserCtxKey, userID)
			ctx = context.WithValue(ctx, NameCtxKey, name)
			ctx = context.WithValue(ctx, RoleCtxKey, model.Role(role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route group to the given roles. Admin passes
// every cashier gate.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := r.Context().Value(RoleCtxKey).(model.Role)
			if !allowed[role] && role != model.RoleAdmin {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Actor returns the display name for timeline and audit entries.
func Actor(ctx context.Context) string {
	if name, ok := ctx.Value(NameCtxKey).(string); ok && name != "" {
		return name
	}
	if id, ok := ctx.Value(UserCtxKey).(string); ok {
		return id
	}
	return "unknown"
}
