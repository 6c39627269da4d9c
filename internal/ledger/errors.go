package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrDomain matches every DomainError.
	ErrDomain = errors.New("ledger: business rule violated")
	// ErrLogic marks data that well-formed callers can never produce.
	ErrLogic = errors.New("ledger: logic error")
)

// Messages carried by DomainError. They are shown to API clients.
const (
	ReasonInvalidMasterKey   = "Invalid master type key"
	ReasonMasterNotFound     = "Couldn't find master account"
	ReasonNoEntityAccounts   = "No accounts found associated with your entity"
	ReasonTreeRootNotFound   = "Could not find the account to make tree for"
	ReasonUnbalanced         = "Debits and credits do not balance"
	ReasonNoLines            = "A transaction needs at least one ledger line"
	ReasonNegativeAmount     = "Ledger line amounts must not be negative"
	ReasonBadDirection       = "Ledger line direction must be DEBIT or CREDIT"
	ReasonAccountNotFound    = "Account not found in this entity"
	ReasonEntityNotFound     = "Entity not found"
	ReasonUnknownAccountType = "Unknown account type"
	ReasonNoJournalEntries   = "No matching journal entries found"
	ReasonBadWindow          = "Start date must not be after stop date"
)

// DomainError reports a business-rule failure with a human readable reason.
type DomainError struct {
	Reason string
}

func (e *DomainError) Error() string { return e.Reason }

// Is lets errors.Is(err, ErrDomain) match any DomainError.
func (e *DomainError) Is(target error) bool { return target == ErrDomain }

func domainError(reason string) error {
	return &DomainError{Reason: reason}
}

func domainErrorf(format string, args ...any) error {
	return &DomainError{Reason: fmt.Sprintf(format, args...)}
}

// Reason returns the client-facing message of a DomainError, or "" when err
// is not one.
func Reason(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}
