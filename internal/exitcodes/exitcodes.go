package exitcodes

// Exit codes for the pathguard CLI
// These codes form the operational contract with scripts and CI jobs
const (
	Success         = 0 // Successful execution
	Usage           = 1 // Unknown command, bad flags or wrong argument count
	InvalidConfig   = 2 // Configuration file invalid or unreadable
	SafetyViolation = 3 // Validation or safety policy rejected the operation
	RuntimeError    = 4 // Filesystem mutation or history store failed
)
