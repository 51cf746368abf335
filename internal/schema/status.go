package schema

// Status is the terminal decision attached to a processed document.
type Status string

const (
	StatusSuccess      Status = "SUCCESS"
	StatusManualReview Status = "MANUAL_REVIEW"
	StatusRetryUpload  Status = "RETRY_UPLOAD"
	StatusSystemError  Status = "SYSTEM_ERROR"
)

// ValidationOutcome is the validator's verdict before it is folded into
// a pipeline result.
type ValidationOutcome struct {
	Status        Status
	UCS           float64
	LogicScore    float64
	Issues        []string
	FlaggedFields []string
}
