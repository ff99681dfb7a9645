package context

import (
	"context"
	"net/http"

	"github.com/zolani/khusela/internal/models"
)

type contextKey string

const (
	authenticatedUserContextKey = contextKey("authenticatedUser")
	authTokenContextKey         = contextKey("authToken")
)

func ContextSetAuthenticatedUser(r *http.Request, user *models.User) *http.Request {
	ctx := context.WithValue(r.Context(), authenticatedUserContextKey, user)
	return r.WithContext(ctx)
}

func ContextGetAuthenticatedUser(r *http.Request) *models.User {
	user, ok := r.Context().Value(authenticatedUserContextKey).(*models.User)
	if !ok {
		return nil
	}

	return user
}

func ContextSetAuthToken(r *http.Request, token string) *http.Request {
	ctx := context.WithValue(r.Context(), authTokenContextKey, token)
	return r.WithContext(ctx)
}

func ContextGetAuthToken(r *http.Request) string {
	token, ok := r.Context().Value(authTokenContextKey).(string)
	if !ok {
		return ""
	}

	return token
}
