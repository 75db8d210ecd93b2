// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package config

import "github.com/cobaltstor/cobaltmeta/pkg/coderr"

var (
	ErrInvalidCommandArgs   = coderr.NewCodeError(coderr.InvalidParams, "invalid command arguments")
	ErrInvalidHTTPPort      = coderr.NewCodeError(coderr.InvalidParams, "invalid http port")
	ErrInvalidEtcdEndpoints = coderr.NewCodeError(coderr.InvalidParams, "etcd endpoints must not be empty")
	ErrHelpRequested        = coderr.NewCodeError(coderr.PrintHelpUsage, "help requested")
)
