package blockchain

import "errors"

var (
	// ErrTxNotFound means the node answered but does not know the transaction.
	ErrTxNotFound = errors.New("transaction not found")
	// ErrMalformedTransaction means the node returned data that failed strict decoding.
	ErrMalformedTransaction = errors.New("malformed transaction payload")
)
