// Package scope captures ambient logical context into restorable tokens
// for completion dispatch.
//
// The forge framework carries multi-tenant scope (app and org identity) on
// the context via forge.WithScope / forge.ScopeFrom. Capture snapshots that
// scope when a completion callback is registered; the token restores it as
// the callback's ambient context at dispatch time, however many goroutine
// hops later. Values is the general-purpose variant for ambient state that
// is not forge scope.
package scope

import (
	"context"

	"github.com/xraph/forge"

	"github.com/xraph/conduit/completion"
)

// Compile-time interface checks.
var (
	_ completion.Token = Token{}
	_ completion.Token = valuesToken{}
)

// Token is a captured tenant scope. The zero Token restores an unscoped
// context.
type Token struct {
	appID string
	orgID string
}

// Capture extracts the forge scope from ctx. The second return is false
// when no scope is present, in which case the completion record should be
// populated without a token at all (the allocation-free path).
func Capture(ctx context.Context) (Token, bool) {
	s, ok := forge.ScopeFrom(ctx)
	if !ok {
		return Token{}, false
	}
	return Token{appID: s.AppID(), orgID: s.OrgID()}, true
}

// AppID returns the captured app identifier.
func (t Token) AppID() string { return t.appID }

// OrgID returns the captured org identifier.
func (t Token) OrgID() string { return t.orgID }

// Context implements completion.Token: it rebuilds a context with the
// captured scope attached, so the callback observes the same forge.Scope
// the registering caller had.
func (t Token) Context() context.Context {
	ctx := context.Background()
	if t.appID == "" && t.orgID == "" {
		return ctx
	}
	var s forge.Scope
	if t.orgID != "" {
		s = forge.NewOrgScope(t.appID, t.orgID)
	} else {
		s = forge.NewAppScope(t.appID)
	}
	return forge.WithScope(ctx, s)
}

// valuesToken carries an entire context's values, detached from its
// cancellation.
type valuesToken struct {
	ctx context.Context
}

func (t valuesToken) Context() context.Context { return t.ctx }

// Values returns a token preserving every value on ctx while detaching the
// token from ctx's cancellation and deadline. The completion may run long
// after the registering call frame unwound; its ambient state must not be
// cancelled with it.
func Values(ctx context.Context) completion.Token {
	return valuesToken{ctx: context.WithoutCancel(ctx)}
}
