// Package logging provides the logging facade used by the simulation layers.
//
// The core packages (modular, paillier, quant, consensus) never log. The
// experiment runner and the CLI accept a Logger and emit progress through it.
//
// Two backends are provided:
//
//	// slog, binding to slog.Default() when nil
//	logger := logging.New(nil)
//
//	// zap, as built by the CLI
//	zl, _ := zap.NewProduction()
//	logger := logging.NewZap(zl)
//
// # Redaction
//
// Secret keys implement slog.LogValuer and render as "[redacted]" in both
// backends. When a log line needs to mention that a secret exists, use
// Redacted instead of the value:
//
//	logger.Info(ctx, "controller ready", logging.Redacted("secret_key"))
package logging
