package accounts

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAccountLabel is returned when a label matches no registered account
	ErrUnknownAccountLabel = errors.New("unknown account label")
	// ErrAmbiguousAccount is returned when no label is given and several accounts are registered
	ErrAmbiguousAccount = errors.New("account label required when multiple accounts are configured")
)

// UnknownAccountLabelError carries the label that failed to resolve
type UnknownAccountLabelError struct {
	Label     string
	Available []string
}

func (e *UnknownAccountLabelError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown account label %q", e.Label)
	}
	return fmt.Sprintf("unknown account label %q (available: %v)", e.Label, e.Available)
}

// Is lets errors.Is match ErrUnknownAccountLabel
func (e *UnknownAccountLabelError) Is(target error) bool {
	return target == ErrUnknownAccountLabel
}
