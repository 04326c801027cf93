package util

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConflict            = errors.New("conflict")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrEmailRegistered     = errors.New("email already registered")
)

// PartialFanoutError reports a notification fan-out that wrote the record
// but not every per-recipient row. The record is not rolled back; callers
// retry only the missing recipients.
type PartialFanoutError struct {
	NotificationID string
	Requested      int
	Created        int
	Missing        []uint
}

func (e *PartialFanoutError) Error() string {
	return fmt.Sprintf("notification %s: created %d of %d recipient rows", e.NotificationID, e.Created, e.Requested)
}
