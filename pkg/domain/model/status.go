package model

// StatusState represents the state of the status surface for one submission
type StatusState string

const (
	// StatusIdle means nothing has been submitted yet
	StatusIdle StatusState = "idle"

	// StatusPending means a submission is in flight
	StatusPending StatusState = "pending"

	// StatusSuccess means the processed file was downloaded
	StatusSuccess StatusState = "success"

	// StatusError means the submission failed
	StatusError StatusState = "error"
)

// Status classes recognized by the upload page
const (
	ClassSuccess = "success"
	ClassError   = "error"
)

// Status messages shown to the user
const (
	PendingMessage = "Fetching email IDs, please wait..."
	SuccessMessage = "Emails fetched successfully. Your file has been downloaded."
	ErrorPrefix    = "Error: "
)

// String returns the string representation of StatusState
func (s StatusState) String() string {
	return string(s)
}

// Class returns the style class for the state. Idle and pending carry no class.
func (s StatusState) Class() string {
	switch s {
	case StatusSuccess:
		return ClassSuccess
	case StatusError:
		return ClassError
	default:
		return ""
	}
}

// IsFinished returns true if the submission reached a terminal state
func (s StatusState) IsFinished() bool {
	return s == StatusSuccess || s == StatusError
}

// ErrorText formats a failure description the way it is displayed
func ErrorText(description string) string {
	return ErrorPrefix + description
}
