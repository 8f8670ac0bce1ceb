// Package logging provides structured logging for the mtcap allowlist tools.
//
// This package wraps a global zap logger with convenience functions. Logging is
// silent unless a level is requested, so CLI output is not interleaved with log
// lines by default.
//
// # Log Levels
//
//   - Debug: every gateway request (method, path, status, elapsed) and raw bodies
//   - Info: allowlist mutations and commits
//   - Warn: skipped entries (e.g. unparsable timestamps during prune)
//   - Error: failures surfaced to the operator
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// or set MTCAP_LOG_LEVEL=debug and call InitializeFromEnv.
//
// # Secrets
//
// Session tokens travel in the query string and are never passed to the logger;
// app keys are logged masked. Logs are written to stderr.
package logging
