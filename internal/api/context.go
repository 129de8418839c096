package api

import "context"

type contextKey string

const playerContextKey contextKey = "player_id"

// PlayerFromContext extracts the player id from context
func PlayerFromContext(ctx context.Context) string {
	id, ok := ctx.Value(playerContextKey).(string)
	if !ok {
		return ""
	}
	return id
}

// ContextWithPlayer adds the player id to context
func ContextWithPlayer(ctx context.Context, playerID string) context.Context {
	return context.WithValue(ctx, playerContextKey, playerID)
}
