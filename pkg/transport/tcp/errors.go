package tcp

import "errors"

var errFrameTooBig = errors.New("tcp: decoded frame exceeds receive buffer")
