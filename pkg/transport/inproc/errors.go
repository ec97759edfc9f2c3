package inproc

import "errors"

var (
	errClosed   = errors.New("inproc: pipe closed")
	errTooLarge = errors.New("inproc: frame exceeds receive buffer")
)
