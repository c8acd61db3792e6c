// Package logger provides structured logging for starledger.
//
//   - logger.go: Logger interface over log/slog, dynamic level
//   - context.go: context propagation of the logger, session and file
//   - paths.go: home directory shortening of path attributes
package logger
