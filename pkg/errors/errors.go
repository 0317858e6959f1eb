package errors

import "errors"

// Share administration errors
var (
	// ErrShareExists is returned when adding a share that already has a config
	ErrShareExists = errors.New("share configuration already exists")

	// ErrShareNotFound is returned when editing or removing a missing share
	ErrShareNotFound = errors.New("share configuration not found")

	// ErrFolderNotEmpty is returned when removing a share whose folder contains data
	ErrFolderNotEmpty = errors.New("share folder is not empty")

	// ErrUnsafeName is returned when a folder name is not a safe filename
	ErrUnsafeName = errors.New("folder name is not a safe filename")

	// ErrPasswordRequired is returned when adding a share without a password
	ErrPasswordRequired = errors.New("password required")
)

// Session store errors
var (
	// ErrStoreUnavailable is returned when the session store cannot be reached
	ErrStoreUnavailable = errors.New("session store unavailable")

	// ErrUnsupportedBackend is returned for an unknown session store backend
	ErrUnsupportedBackend = errors.New("unsupported session store backend")
)

// Configuration errors
var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")
)
