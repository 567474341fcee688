package service

import "errors"

var (
	// ErrGrantLookup wraps failures reading a user's access grants.
	ErrGrantLookup = errors.New("access grant lookup failed")
	// ErrFactQuery wraps failures of the joined fact query.
	ErrFactQuery = errors.New("planned data query failed")

	ErrInvalidSort       = errors.New("invalid sort column")
	ErrAccessDenied      = errors.New("access denied")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateMember   = errors.New("dimension member already exists")
	ErrInvalidTransition = errors.New("invalid version status transition")
	ErrAssistantDisabled = errors.New("assistant is not configured")
	ErrInvalidRequest    = errors.New("invalid request")
)
