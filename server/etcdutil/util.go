// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package etcdutil

import (
	"context"
	"time"

	"github.com/cobaltstor/cobaltmeta/pkg/log"
	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

const (
	// DefaultRequestTimeout 10s is long enough for most of etcd clusters.
	DefaultRequestTimeout = 10 * time.Second

	// DefaultSlowRequestTime 1s is the threshold for a normal request, for
	// those longer than 1s, they are considered as slow requests.
	DefaultSlowRequestTime = 1 * time.Second
)

// Get returns the value of the given key, failing with ErrEtcdKVGetNotFound
// when the key is absent.
func Get(ctx context.Context, client *clientv3.Client, key string) ([]byte, error) {
	resp, err := client.Get(ctx, key)
	if err != nil {
		return nil, ErrEtcdKVGet.WithCause(err)
	}
	if n := len(resp.Kvs); n == 0 {
		return nil, ErrEtcdKVGetNotFound.WithCausef("key:%s", key)
	} else if n > 1 {
		return nil, ErrEtcdKVGetResponse.WithCausef("%v", resp.Kvs)
	}

	return resp.Kvs[0].Value, nil
}

// Scan iterates [startKey, endKey) in batches of limit, returning all values.
func Scan(ctx context.Context, client *clientv3.Client, startKey, endKey string, limit int) ([][]byte, error) {
	withRange := clientv3.WithRange(endKey)
	withLimit := clientv3.WithLimit(int64(limit))
	values := make([][]byte, 0)

	for {
		resp, err := client.Get(ctx, startKey, withRange, withLimit)
		if err != nil {
			return nil, ErrEtcdKVGet.WithCause(err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for _, item := range resp.Kvs {
			values = append(values, item.Value)
			// Next batch starts just past the last returned key.
			startKey = string(item.Key) + "\x00"
		}

		if len(resp.Kvs) < limit {
			return values, nil
		}
	}
}

// SlowLogTxn wraps an etcd transaction and logs slow ones.
type SlowLogTxn struct {
	clientv3.Txn
	cancel context.CancelFunc
}

// NewSlowLogTxn creates a SlowLogTxn.
func NewSlowLogTxn(client *clientv3.Client) clientv3.Txn {
	ctx, cancel := context.WithTimeout(client.Ctx(), DefaultRequestTimeout)
	return &SlowLogTxn{
		Txn:    client.Txn(ctx),
		cancel: cancel,
	}
}

// If takes a list of comparisons. If all comparisons passed in succeed, the
// operations passed into Then() will be executed, otherwise the operations
// passed into Else().
func (t *SlowLogTxn) If(cs ...clientv3.Cmp) clientv3.Txn {
	t.Txn = t.Txn.If(cs...)
	return t
}

// Then takes a list of operations executed if the comparisons in If() succeed.
func (t *SlowLogTxn) Then(ops ...clientv3.Op) clientv3.Txn {
	t.Txn = t.Txn.Then(ops...)
	return t
}

// Commit implements Txn Commit interface.
func (t *SlowLogTxn) Commit() (*clientv3.TxnResponse, error) {
	start := time.Now()
	resp, err := t.Txn.Commit()
	t.cancel()

	cost := time.Since(start)
	if cost > DefaultSlowRequestTime {
		log.Warn("txn runs too slow",
			zap.Reflect("response", resp),
			zap.Duration("cost", cost),
			zap.Error(err))
	}

	return resp, errors.WithStack(err)
}
