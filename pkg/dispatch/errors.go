package dispatch

import "errors"

var errHeaderTooLarge = errors.New("dispatch: encoded header does not fit in scratch buffer")
var errDispatcherNotRunning = errors.New("dispatch: Publish called before Run negotiated a connection")
