// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package storage

import "github.com/cobaltstor/cobaltmeta/pkg/coderr"

var (
	ErrGetSnapshot    = coderr.NewCodeError(coderr.Internal, "storage get pgmap snapshot")
	ErrPutSnapshot    = coderr.NewCodeError(coderr.Internal, "storage put pgmap snapshot")
	ErrPutDelta       = coderr.NewCodeError(coderr.Internal, "storage put pgmap delta")
	ErrListDeltas     = coderr.NewCodeError(coderr.Internal, "storage list pgmap deltas")
	ErrDeleteDeltas   = coderr.NewCodeError(coderr.Internal, "storage delete pgmap deltas")
	ErrDecodeSnapshot = coderr.NewCodeError(coderr.Internal, "storage decode stored snapshot")
)
