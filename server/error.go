// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package server

import "github.com/cobaltstor/cobaltmeta/pkg/coderr"

var (
	ErrCreateEtcdClient = coderr.NewCodeError(coderr.Internal, "fail to create etcd client")
	ErrLoadCluster      = coderr.NewCodeError(coderr.Internal, "fail to load cluster state")
)
