// Package audit records renames as JSON lines and reads them back.
package audit

import (
	"encoding/json"

	"github.com/filechanger/filechanger/pkg/logging"
	"github.com/filechanger/filechanger/pkg/model"
)

// Logger appends audit records through a diagnostic logger's sink, so audit
// lines and diagnostic entries share one file and one lock.
type Logger struct {
	log *logging.Logger
}

// NewLogger returns a Logger writing through log.
func NewLogger(log *logging.Logger) *Logger {
	return &Logger{log: log}
}

// Record appends {"action","old_name","new_name"} at info level. Failures
// are reported by the logger's fallback and never reach the caller.
func (l *Logger) Record(action, oldName, newName string) {
	data, err := json.Marshal(model.AuditRecord{
		Action:  action,
		OldName: oldName,
		NewName: newName,
	})
	if err != nil {
		l.log.ErrorErr("encode audit record", err, map[string]any{"old_name": oldName})
		return
	}
	l.log.Emit(logging.LevelInfo, data)
}
