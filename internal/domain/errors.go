package domain

import "errors"

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileAlreadyExists = errors.New("profile already exists")
	ErrInvalidAddress       = errors.New("invalid address")
	ErrInvalidPreference    = errors.New("invalid gender preference")
	ErrInvalidContinent     = errors.New("invalid continent")
	ErrInvalidInput         = errors.New("invalid input")

	ErrRequestNotFound       = errors.New("pair request not found")
	ErrRequestAlreadyPending = errors.New("pair request already pending")
	ErrRequestNotPending     = errors.New("pair request is not pending")
	ErrNotRequestRecipient   = errors.New("only the recipient can resolve a pair request")
	ErrCannotRequestSelf     = errors.New("cannot send a pair request to yourself")

	ErrBondNotFound    = errors.New("bond not found")
	ErrNotBondMember   = errors.New("not a member of this bond")
	ErrAlreadyBonded   = errors.New("already bonded")
	ErrUserBlocked     = errors.New("user is blocked")
	ErrCannotBlockSelf = errors.New("cannot block yourself")

	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyMessage    = errors.New("message body is empty")

	ErrInvalidToken = errors.New("invalid token")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrOperationFailed is the only error a caller sees when the store or
	// gateway fails during a write. The cause is logged, never returned.
	ErrOperationFailed = errors.New("operation failed, try again")
)

var domainErrors = []error{
	ErrProfileNotFound, ErrProfileAlreadyExists, ErrInvalidAddress, ErrInvalidPreference,
	ErrInvalidContinent, ErrInvalidInput,
	ErrRequestNotFound, ErrRequestAlreadyPending, ErrRequestNotPending, ErrNotRequestRecipient,
	ErrCannotRequestSelf,
	ErrBondNotFound, ErrNotBondMember, ErrAlreadyBonded, ErrUserBlocked, ErrCannotBlockSelf,
	ErrMessageNotFound, ErrEmptyMessage,
	ErrInvalidToken, ErrUnauthorized,
	ErrOperationFailed,
}

// IsDomainError reports whether err is one of the sentinels above and may be
// returned to a caller as is.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
