package cobs

import "errors"

var (
	errZeroCode  = errors.New("cobs: zero code byte in encoded block")
	errTruncated = errors.New("cobs: code run exceeds remaining input")
	errTooLarge  = errors.New("cobs: frame exceeded accumulator capacity")
)
