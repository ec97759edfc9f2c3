package serial

import "errors"

var errOversize = errors.New("serial: decoded frame exceeds receive buffer")
