package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload  ErrCode = "INVALID_PAYLOAD"
	ErrMissingAIField  ErrCode = "MISSING_AI_FIELDS"
	ErrUnknownQuestion ErrCode = "UNKNOWN_QUESTION"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound           ErrCode = "NOT_FOUND"
	ErrAssignmentNotFound ErrCode = "ASSIGNMENT_NOT_FOUND"

	// ─── Upload ────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal     ErrCode = "INTERNAL_ERROR"
	ErrAIGeneration ErrCode = "AI_GENERATION_FAILED"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "Invalid assignment data."
	case ErrMissingAIField:
		return "Missing required fields for AI generation."
	case ErrUnknownQuestion:
		return "Question does not belong to this assignment."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrAssignmentNotFound:
		return "Assignment not found."

	// ─── Upload ────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "No file uploaded."
	case ErrUnsupportedFile:
		return "Only PDF files are allowed."
	case ErrFileTooLarge:
		return "File size too large. Maximum file size is 10MB."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Something went wrong on the server."
	case ErrAIGeneration:
		return "Failed to generate AI response."
	default:
		return "An unexpected error occurred."
	}
}
