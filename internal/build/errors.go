package build

import "errors"

var (
	ErrBuild        = errors.New("build failed")
	ErrNoWaitRecord = errors.New("wait stream ended without a record")
	ErrReport       = errors.New("report failed")
)
