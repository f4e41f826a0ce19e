package field

import "errors"

// Controller lifecycle errors.
var (
	ErrNotInitialized     = errors.New("field controller is not initialized")
	ErrAlreadyInitialized = errors.New("field controller is already initialized")
	ErrDisposed           = errors.New("field controller is disposed")
)
