// Package logger wraps zap for the release tools:
//   - a global sugared logger writing a console format to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing for the --log-level flag,
//   - convenience functions (Infof, WarnKV, etc.).
//
// Standard output is reserved for command results (the manifest JSON and the
// publisher status lines), so nothing in this package writes there.
package logger
