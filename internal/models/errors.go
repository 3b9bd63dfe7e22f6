package models

import "errors"

// ErrDuplicateEmail is returned by credential stores when an account with
// the same email already exists.
var ErrDuplicateEmail = errors.New("email already exists")
