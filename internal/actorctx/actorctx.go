package actorctx

import "context"

type key struct{}

// Actor is the authenticated caller attached to a request context.
type Actor struct {
	UserID   string
	Username string
	Role     string
}

func With(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, key{}, a)
}

func From(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(key{}).(Actor)
	return a, ok && a.UserID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	a, ok := From(ctx)
	return a.UserID, ok
}
