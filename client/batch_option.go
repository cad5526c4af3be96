package client

import (
	"github.com/matrixorigin/batchstore/pb/batchpb"
)

// BatchOption batch option used to begin a Batch
type BatchOption func(*batchOptions)

type batchOptions struct {
	name     string
	readOnly bool
	hint     string
}

func (opts *batchOptions) adjust() {
	if opts.name == "" {
		opts.name = "unnamed"
	}
}

func (opts *batchOptions) wire() batchpb.BatchOptions {
	return batchpb.BatchOptions{
		ReadOnly: opts.readOnly,
		Hint:     opts.hint,
	}
}

// WithBatchName set batch name, used for logging only
func WithBatchName(name string) BatchOption {
	return func(opts *batchOptions) {
		opts.name = name
	}
}

// WithBatchReadOnly the batch permits no writes. Writes are rejected by the
// client before dispatch, no remote call is made.
func WithBatchReadOnly() BatchOption {
	return func(opts *batchOptions) {
		opts.readOnly = true
	}
}

// WithBatchHint set an opaque advisory hint, forwarded to the remote store
// uninterpreted.
func WithBatchHint(hint string) BatchOption {
	return func(opts *batchOptions) {
		opts.hint = hint
	}
}
