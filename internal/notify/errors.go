package notify

// ErrorCode is the shared failure vocabulary of the notification subsystem.
// Client-side code reports the first four; the dispatcher and HTTP surface
// use the rest.
type ErrorCode string

const (
	CodePlatformUnsupported    ErrorCode = "PLATFORM_UNSUPPORTED"
	CodePermissionDenied       ErrorCode = "PERMISSION_DENIED"
	CodePermissionDefault      ErrorCode = "PERMISSION_DEFAULT"
	CodeRegistrationFailed     ErrorCode = "REGISTRATION_FAILED"
	CodeRecipientNotRegistered ErrorCode = "RECIPIENT_NOT_REGISTERED"
	CodeValidation             ErrorCode = "VALIDATION_ERROR"
	CodeUnauthorized           ErrorCode = "UNAUTHORIZED"
)

// UserMessage maps codes to copy safe to show end users. Unknown codes get
// the generic line.
func UserMessage(code ErrorCode) string {
	switch code {
	case CodePlatformUnsupported:
		return "This browser does not support notifications."
	case CodePermissionDenied:
		return "Notifications are blocked. Allow them in your browser settings."
	case CodePermissionDefault:
		return "Notifications have not been enabled yet."
	case CodeRegistrationFailed:
		return "Could not set up notifications. Try again later."
	case CodeValidation:
		return "Please check the submitted values."
	case CodeUnauthorized:
		return "Sign in to continue."
	default:
		return "Something went wrong. Try again later."
	}
}
