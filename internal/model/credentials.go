package model

import "log/slog"

// Credentials is the intranet login pair.
// It is resolved once at startup and never changes during a run.
type Credentials struct {
	// Username fills the login form's username field.
	Username string

	// Password fills the login form's password field.
	Password string

	// FromFallback is true when at least one value came from the built-in
	// defaults instead of the environment.
	FromFallback bool
}

// LogValue implements slog.LogValuer. The password is never rendered.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.Bool("fallback", c.FromFallback),
	)
}
