package wire

import "fmt"

// txError is the concrete TxError most transports return.
type txError struct {
	kind TxErrorKind
	err  error
}

func NewTxError(kind TxErrorKind, err error) error {
	return &txError{kind: kind, err: err}
}

func (e *txError) Error() string    { return fmt.Sprintf("wire tx: %v", e.err) }
func (e *txError) Unwrap() error    { return e.err }
func (e *txError) Kind() TxErrorKind { return e.kind }

// rxError is the concrete RxError most transports return.
type rxError struct {
	kind RxErrorKind
	err  error
}

func NewRxError(kind RxErrorKind, err error) error {
	return &rxError{kind: kind, err: err}
}

func (e *rxError) Error() string    { return fmt.Sprintf("wire rx: %v", e.err) }
func (e *rxError) Unwrap() error    { return e.err }
func (e *rxError) Kind() RxErrorKind { return e.kind }
