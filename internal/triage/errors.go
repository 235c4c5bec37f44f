package triage

import "errors"

// Sentinel errors for triage operations.
var (
	ErrRowNotFound    = errors.New("row not found in current list")
	ErrUploadInFlight = errors.New("upload already in flight for row")
)
