package services

import "errors"

// ErrorKind classifies service errors so the transport layer can branch on
// the kind instead of on individual sentinels.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

type kindError struct {
	kind ErrorKind
	msg  string
}

func (e *kindError) Error() string   { return e.msg }
func (e *kindError) Kind() ErrorKind { return e.kind }

func newError(kind ErrorKind, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// KindOf returns the kind of the first classified error in err's chain.
// Unclassified errors are internal.
func KindOf(err error) ErrorKind {
	var ke interface{ Kind() ErrorKind }
	if errors.As(err, &ke) {
		return ke.Kind()
	}
	return KindInternal
}

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrValidationFailed = newError(KindValidation, "validation failed")
	ErrPasswordTooShort = newError(KindValidation, "password must be at least 6 characters")
	ErrPasswordTooLong  = newError(KindValidation, "password must be at most 72 bytes")
	ErrEmailRequired    = newError(KindValidation, "email is required")
	ErrEmailInvalid     = newError(KindValidation, "email is invalid")
	ErrTeamNameRequired = newError(KindValidation, "team name is required")
	ErrNoCandidates     = newError(KindValidation, "at least one user id is required")
	ErrInvalidID        = newError(KindValidation, "ids must be positive integers")
	ErrInvalidRole      = newError(KindValidation, "invalid role")
	ErrUploadsDisabled  = newError(KindValidation, "file uploads are not enabled")
	ErrMessageToSelf    = newError(KindValidation, "cannot send a message to yourself")

	ErrUserNotFound         = newError(KindNotFound, "user not found")
	ErrTeamNotFound         = newError(KindNotFound, "team not found")
	ErrSubmissionNotFound   = newError(KindNotFound, "submission not found")
	ErrAnnouncementNotFound = newError(KindNotFound, "announcement not found")

	ErrUserEmailConflict  = newError(KindConflict, "email address is already in use")
	ErrTeamNameConflict   = newError(KindConflict, "team name is already in use")
	ErrTeamHasSubmissions = newError(KindConflict, "team has submissions and cannot be deleted")

	ErrInvalidCredentials = newError(KindUnauthorized, "invalid email or password")
	// ErrResetTokenInvalid covers every redemption failure: unknown, used and
	// expired tokens are indistinguishable to the caller.
	ErrResetTokenInvalid = newError(KindValidation, "invalid or expired token")

	ErrForbiddenOperation  = newError(KindForbidden, "operation not allowed for the current user")
	ErrNotTeamMember       = newError(KindForbidden, "only members of the team can perform this action")
	ErrRecipientNotAllowed = newError(KindForbidden, "participants can only message organizers and mentors")
)
