// Package logging provides structured logging for gantry.
//
// The package wraps Go's log/slog with a JSON handler and a small set of
// context helpers so that every line written while a timeline is open can be
// traced back to its project, task and gesture.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/state", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("tasks loaded", "count", 12)
//
// # Context Propagation
//
//	boardLogger := logger.WithProject("proj-1")
//	gestureLogger := boardLogger.WithTask("task-7").WithGesture("0c4e...")
//	gestureLogger.Warn("increment clamped at minimum duration", "edge", "start")
//
// Output:
//
//	{"time":"...","level":"WARN","msg":"increment clamped at minimum duration","project_id":"proj-1","task_id":"task-7","gesture_id":"0c4e...","edge":"start"}
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWriterLogger] with a
// bytes.Buffer to assert on emitted lines.
//
// # Configuration
//
//	logging:
//	  enabled: true
//	  level: info
//	  dir: ~/.local/state/gantry
package logging
