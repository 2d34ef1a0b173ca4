// Package constants provides shared constants used across the codebase.
package constants

// Session constants
const (
	// EventChannelBuffer is the buffer size for session event channels
	EventChannelBuffer = 100

	// DispatchQueueWarning is the queue depth past which a session logs a backlog warning
	DispatchQueueWarning = 32

	// CleanupInterval is how often the session manager sweeps for expired sessions
	CleanupInterval = 60 // seconds
)

// Handler constants
const (
	// MaxUploadSize is the maximum portrait upload size in bytes (25MB)
	MaxUploadSize = 25 << 20

	// DefaultHistoryLimit is the default number of history entries to return
	DefaultHistoryLimit = 100

	// DefaultSimilarLimit is the default limit for expression similarity results
	DefaultSimilarLimit = 10

	// DefaultEmotionMatches is the default number of emotion matches to return
	DefaultEmotionMatches = 3
)
