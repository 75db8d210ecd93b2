// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package cluster

import "github.com/cobaltstor/cobaltmeta/pkg/coderr"

var (
	ErrStaleDelta     = coderr.NewCodeError(coderr.InvalidParams, "delta is stale or from the future")
	ErrReplaySnapshot = coderr.NewCodeError(coderr.Internal, "replay stored deltas onto snapshot")
)
