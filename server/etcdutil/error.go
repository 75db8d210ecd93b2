// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package etcdutil

import "github.com/cobaltstor/cobaltmeta/pkg/coderr"

var (
	ErrEtcdKVGet         = coderr.NewCodeError(coderr.Internal, "etcd KV get failed")
	ErrEtcdKVGetNotFound = coderr.NewCodeError(coderr.NotFound, "etcd KV get value not found")
	ErrEtcdKVGetResponse = coderr.NewCodeError(coderr.Internal, "etcd KV get response invalid")
	ErrEtcdKVPut         = coderr.NewCodeError(coderr.Internal, "etcd KV put failed")
	ErrEtcdKVDelete      = coderr.NewCodeError(coderr.Internal, "etcd KV delete failed")
	ErrEtcdTxnConflict   = coderr.NewCodeError(coderr.Internal, "etcd transaction conflict")
)
