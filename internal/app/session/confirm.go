package session

import "context"

// Confirmer gates destructive operations. promptKey names the message to
// show, e.g. "remove_url" or "clear_settings".
type Confirmer interface {
	ConfirmDestructive(ctx context.Context, promptKey string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, promptKey string) bool

// ConfirmDestructive calls f.
func (f ConfirmFunc) ConfirmDestructive(ctx context.Context, promptKey string) bool {
	return f(ctx, promptKey)
}

// AlwaysConfirm approves every destructive operation.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// ContextConfirmer approves an operation when its context carries a
// confirmation set with WithConfirmation.
var ContextConfirmer Confirmer = ConfirmFunc(func(ctx context.Context, _ string) bool { return Confirmed(ctx) })

type confirmKey struct{}

// WithConfirmation returns a context recording whether the caller confirmed.
func WithConfirmation(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmKey{}, confirmed)
}

// Confirmed reports whether ctx carries a confirmation.
func Confirmed(ctx context.Context) bool {
	confirmed, _ := ctx.Value(confirmKey{}).(bool)
	return confirmed
}
