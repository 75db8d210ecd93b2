// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package pgmap

import "github.com/cobaltstor/cobaltmeta/pkg/coderr"

var (
	// ErrVersionMismatch means a delta arrived out of order. The upstream
	// commit layer must re-sequence and retry, this package never does.
	ErrVersionMismatch = coderr.NewCodeError(coderr.InvalidParams, "delta version mismatch")
	// ErrMalformedInput means the byte stream handed to a decoder is
	// truncated or structurally invalid.
	ErrMalformedInput = coderr.NewCodeError(coderr.BadRequest, "malformed encoded input")
)
