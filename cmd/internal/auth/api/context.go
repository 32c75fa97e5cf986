package authapi

import (
	"context"

	"ripple/cmd/identity"
)

type ctxKey int

const accountKey ctxKey = iota

// ContextWithAccount returns a child context carrying the resolved account.
func ContextWithAccount(ctx context.Context, a identity.Account) context.Context {
	return context.WithValue(ctx, accountKey, a)
}

// AccountFromContext returns the account the authorization gate attached,
// if any. Handlers behind Require(true) can rely on ok being true.
func AccountFromContext(ctx context.Context) (identity.Account, bool) {
	a, ok := ctx.Value(accountKey).(identity.Account)
	return a, ok
}
