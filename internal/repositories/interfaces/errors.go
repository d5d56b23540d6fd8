package interfaces

import "errors"

// ErrNotFound is returned by repositories when the requested row does not
// exist. Services translate it into their own NotFoundError.
var ErrNotFound = errors.New("not found")
