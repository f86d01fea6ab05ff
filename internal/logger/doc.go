// Package logger provides a levelled, thread-safe logger backed by zap.
//
// Each entry includes a timestamp, level, message and, when given, the
// benchmark client it concerns. Entries go to stderr by default so that
// stdout carries nothing but the summary line.
//
// # Basic Usage
//
// Using the default logger:
//
//	logger.Info("", "Benchmark started")
//	logger.Debug("2", "tasks: %v", tasks)
//	logger.Error("", "Runner failed: %v", err)
//
// Creating a custom logger:
//
//	l := logger.New(os.Stderr, logger.LevelDebug)
//	l.Debug("0", "Debug message")
//
// # Log Levels
//
// Messages below the configured level are filtered:
//   - LevelDebug: all messages
//   - LevelInfo: Info, Warn, Error
//   - LevelWarn: Warn, Error
//   - LevelError: Error only
package logger
