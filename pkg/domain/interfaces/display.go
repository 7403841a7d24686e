package interfaces

// StatusDisplay is the status surface that communicates submission progress to the user.
// Implementations must be safe for concurrent use; the last call wins.
type StatusDisplay interface {
	// SetPending shows the in-progress message and clears success/error state
	SetPending()

	// SetSuccess shows the completion message with success state
	SetSuccess()

	// SetError shows the failure description with error state
	SetError(description string)
}
