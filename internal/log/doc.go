// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks:
//   - attributes whose key names a secret (password, token, cookie, ...)
//   - values that look like bearer, basic or JWT tokens, or URLs with userinfo
//   - every occurrence of a registered secret, such as the login password,
//     in messages, string attributes and error texts
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose, log.WithSecrets(creds.Password))
//	logger.Info("Successfully logged in.", "user", creds.Username)
//	slog.SetDefault(logger)
package log
