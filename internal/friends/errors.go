package friends

import "errors"

var (
	// ErrNotFound covers absent rows and, for Cancel, rows the caller is
	// not allowed to act on. Cancellation by a non-sender is deliberately
	// indistinguishable from true absence.
	ErrNotFound = errors.New("friend request not found")

	// ErrForbidden means the caller is authenticated but not the party
	// allowed to perform this mutation.
	ErrForbidden = errors.New("not allowed to act on this friend request")

	// ErrConflict means the request changed state concurrently and is no
	// longer pending.
	ErrConflict = errors.New("friend request already handled")
)

// Rules a friend request can violate, checked in this order on send.
const (
	RuleSelfRequest    = "self_request"
	RuleRecipientKind  = "recipient_kind"
	RuleAlreadyFriends = "already_friends"
	RuleInversePending = "inverse_pending"
	RuleDuplicate      = "duplicate_request"
)

// ValidationError reports the first friend-request rule violated by a send.
type ValidationError struct {
	Rule   string
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

func validationErr(rule, detail string) *ValidationError {
	return &ValidationError{Rule: rule, Detail: detail}
}
