// Package ctxutil carries the acting username through a request context.
// It imports nothing from this module so every layer can use it.
package ctxutil

import (
	"context"
	"strings"
)

type actorKey struct{}

// WithActor returns a copy of ctx carrying the acting username.
// A blank username leaves ctx untouched, so the work stays system-initiated.
func WithActor(ctx context.Context, username string) context.Context {
	username = strings.TrimSpace(username)
	if username == "" {
		return ctx
	}
	return context.WithValue(ctx, actorKey{}, username)
}

// Actor returns the acting username, or "" for system-initiated work.
func Actor(ctx context.Context) string {
	username, _ := ctx.Value(actorKey{}).(string)
	return username
}
