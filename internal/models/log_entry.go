package models

// LogType is the severity shown next to a log entry.
type LogType string

const (
	LogInfo    LogType = "INFO"
	LogWarning LogType = "WARNING"
	LogSuccess LogType = "SUCCESS"
	LogDanger  LogType = "DANGER"
)

// LogEntry is one line of a group's append-only audit trail.
type LogEntry struct {
	ID        string
	GroupID   string
	Message   string
	Type      LogType
	Timestamp int64
}
