package exchange

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDataIntegrity marks catalog or profile defects that must not be patched silently.
	ErrDataIntegrity = errors.New("data integrity")
	// ErrNoProfileVersion is returned when a system has no completed bucket-profile version.
	ErrNoProfileVersion = errors.New("no bucket profile version")
	// ErrInvalidTargets is returned for negative or non-finite macro targets.
	ErrInvalidTargets = errors.New("invalid energy targets")
)

type DataIntegrityError struct {
	SystemID string
	Version  string
	Reason   string
}

func (e *DataIntegrityError) Error() string {
	if e == nil {
		return ""
	}
	parts := []string{"data integrity"}
	if e.SystemID != "" {
		parts = append(parts, "system="+e.SystemID)
	}
	if e.Version != "" {
		parts = append(parts, "version="+e.Version)
	}
	msg := strings.Join(parts, " ")
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *DataIntegrityError) Is(target error) bool { return target == ErrDataIntegrity }

func NewDataIntegrityError(systemID, version, format string, args ...any) *DataIntegrityError {
	return &DataIntegrityError{SystemID: systemID, Version: version, Reason: fmt.Sprintf(format, args...)}
}

// MissingProfileWarning is non-fatal: the bucket is skipped and generation continues.
type MissingProfileWarning struct {
	BucketType string `json:"bucket_type"`
	BucketID   int64  `json:"bucket_id,omitempty"`
	Code       string `json:"code,omitempty"`
	Reason     string `json:"reason"`
}

func (w MissingProfileWarning) String() string {
	return fmt.Sprintf("%s %d (%s): %s", w.BucketType, w.BucketID, w.Code, w.Reason)
}
