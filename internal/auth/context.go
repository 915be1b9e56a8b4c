package auth

import (
	"context"
	"strings"
)

type contextKey struct{}

// Identity is who a request acts for: an authenticated account (Email set)
// or an anonymous guest whose data lives in a local file (GuestKey set).
type Identity struct {
	Email    string
	GuestKey string
}

func User(email string) Identity {
	return Identity{Email: strings.ToLower(strings.TrimSpace(email))}
}

func Guest(key string) Identity {
	return Identity{GuestKey: strings.ToLower(strings.TrimSpace(key))}
}

func (id Identity) Authenticated() bool {
	return id.Email != ""
}

func (id Identity) Valid() bool {
	return id.Email != "" || id.GuestKey != ""
}

// Owner is the storage and notification key for the identity.
func (id Identity) Owner() string {
	if id.Authenticated() {
		return "user:" + id.Email
	}
	return "guest:" + id.GuestKey
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Owner returns the owner key of the identity in ctx, or "".
func Owner(ctx context.Context) string {
	id, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return id.Owner()
}
