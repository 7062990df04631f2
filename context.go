package quizClient

import "context"

type managerContextKey struct{}

// WithManager attaches m to ctx so code further down the call tree can reach the single
// application-wide Manager without a global.
func WithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerContextKey{}, m)
}

// ManagerFromContext returns the Manager attached with [WithManager].
func ManagerFromContext(ctx context.Context) (*Manager, bool) {
	if ctx == nil {
		return nil, false
	}
	m, ok := ctx.Value(managerContextKey{}).(*Manager)
	return m, ok && m != nil
}
