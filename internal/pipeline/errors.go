package pipeline

import "errors"

var (
	ErrEmptyPipeline   = errors.New("pipeline has no steps")
	ErrInvalidStep     = errors.New("invalid step")
	ErrDuplicateStep   = errors.New("duplicate step name")
	ErrUnknownFormat   = errors.New("unknown pipeline format")
	ErrInvalidDocument = errors.New("invalid pipeline document")
)
