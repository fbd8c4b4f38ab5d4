package model

import "errors"

var (
	// ErrNotFound covers absent credentials and sessions alike; callers must
	// not surface whether a record never existed or was deleted.
	ErrNotFound = errors.New("not found")
	// ErrLocked is the one authentication failure that stays distinct to the
	// end user, so a legitimate owner knows to contact an administrator.
	ErrLocked            = errors.New("account locked")
	ErrInvalidSecret     = errors.New("invalid secret")
	ErrInvalidPin        = errors.New("invalid pin")
	ErrDuplicateIdentity = errors.New("login id already exists")
	ErrSelfOperation     = errors.New("operation on own account denied")
	ErrPinFormat         = errors.New("maintenance pin must be 8 digits")
	// ErrReplicationUnavailable signals that the push channel is not usable
	// and the replicator should fall back to polling reads.
	ErrReplicationUnavailable = errors.New("settings push channel unavailable")
)
