// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package http

import "github.com/cobaltstor/cobaltmeta/pkg/coderr"

var (
	ErrParseRequest    = coderr.NewCodeError(coderr.BadRequest, "parse request body failed")
	ErrFlowLimit       = coderr.NewCodeError(coderr.TooManyRequests, "request rejected by flow limiter")
	ErrHTTPServerClose = coderr.NewCodeError(coderr.Internal, "http server closed unexpectedly")
)
