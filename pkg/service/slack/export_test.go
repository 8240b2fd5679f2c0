package slack

// Export internal functions and types for testing
var (
	TruncateToMaxBytes = truncateToMaxBytes
)
