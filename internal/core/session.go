package core

import (
	"context"
	"strings"
)

const SubscriptionPremium = "premium"

// Session is the caller identity supplied by the upstream auth proxy.
type Session struct {
	UserEmail    string `json:"user_email"`
	FullName     string `json:"full_name"`
	Subscription string `json:"subscription"`
	Theme        string `json:"theme"`
}

// Premium reports whether the session has a premium subscription.
func (s Session) Premium() bool {
	return strings.EqualFold(strings.TrimSpace(s.Subscription), SubscriptionPremium)
}

type sessionKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored in ctx, if any.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
