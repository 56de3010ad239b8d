package services

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/ajramos/giznotion/internal/accounts"
	"github.com/ajramos/giznotion/internal/notion"
	"github.com/ajramos/giznotion/pkg/auth"
)

// Standard service errors
var (
	ErrInvalidInput = errors.New("invalid input provided")

	// ErrSearchFailed marks a federated search that failed for one account
	ErrSearchFailed = errors.New("search failed")
)

// SearchFailedError carries the account whose search branch failed
type SearchFailedError struct {
	AccountID accounts.ID
	Err       error
}

func (e *SearchFailedError) Error() string {
	return fmt.Sprintf("search failed for %s: %v", e.AccountID, e.Err)
}

func (e *SearchFailedError) Unwrap() []error {
	return []error{ErrSearchFailed, e.Err}
}

// IsRetryableError determines if an error should be retried
func IsRetryableError(err error) bool {
	var netErr net.Error
	return errors.Is(err, notion.ErrRateLimited) ||
		errors.Is(err, notion.ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr)
}

// IsPermanentError determines if an error is permanent and should not be retried
func IsPermanentError(err error) bool {
	return errors.Is(err, notion.ErrUnauthorized) ||
		errors.Is(err, notion.ErrNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, accounts.ErrUnknownAccountLabel) ||
		errors.Is(err, accounts.ErrAmbiguousAccount) ||
		errors.Is(err, auth.ErrAuthenticationRequired) ||
		errors.Is(err, auth.ErrAuthenticationFailed)
}
