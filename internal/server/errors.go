package server

import "errors"

var (
	ErrServer = errors.New("server error")
	ErrClient = errors.New("daemon request failed")
)
