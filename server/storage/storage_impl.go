// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package storage

import (
	"context"

	"github.com/cobaltstor/cobaltmeta/pkg/coderr"
	"github.com/cobaltstor/cobaltmeta/pkg/log"
	"github.com/cobaltstor/cobaltmeta/server/etcdutil"
	"github.com/cobaltstor/cobaltmeta/server/pgmap"
	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

const defaultScanLimit = 100

type metaStorageImpl struct {
	client *clientv3.Client

	opts Options
}

func newEtcdStorage(client *clientv3.Client, opts Options) Storage {
	if opts.MaxScanLimit <= 0 {
		opts.MaxScanLimit = defaultScanLimit
	}
	return &metaStorageImpl{client: client, opts: opts}
}

func (s *metaStorageImpl) GetSnapshot(ctx context.Context) (*pgmap.Map, bool, error) {
	key := makeSnapshotKey(s.opts.RootPath)
	value, err := etcdutil.Get(ctx, s.client, key)
	if coderr.Is(err, coderr.NotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, ErrGetSnapshot.WithCausef("key:%s, err:%v", key, err)
	}

	m, err := pgmap.DecodeMap(value)
	if err != nil {
		return nil, false, ErrDecodeSnapshot.WithCausef("key:%s, err:%v", key, err)
	}
	return m, true, nil
}

func (s *metaStorageImpl) PutSnapshot(ctx context.Context, m *pgmap.Map) error {
	key := makeSnapshotKey(s.opts.RootPath)
	txn := etcdutil.NewSlowLogTxn(s.client)
	resp, err := txn.Then(clientv3.OpPut(key, string(m.Encode()))).Commit()
	if err != nil {
		e := ErrPutSnapshot.WithCause(err)
		log.Error("put pgmap snapshot to etcd", zap.String("key", key), zap.Error(e))
		return e
	}
	if !resp.Succeeded {
		return etcdutil.ErrEtcdTxnConflict
	}
	return nil
}

func (s *metaStorageImpl) PutDelta(ctx context.Context, d *pgmap.Delta) error {
	key := makeDeltaKey(s.opts.RootPath, d.Version)
	txn := etcdutil.NewSlowLogTxn(s.client)
	resp, err := txn.Then(clientv3.OpPut(key, string(d.Encode()))).Commit()
	if err != nil {
		e := ErrPutDelta.WithCause(err)
		log.Error("put pgmap delta to etcd", zap.String("key", key), zap.Uint64("version", d.Version), zap.Error(e))
		return e
	}
	if !resp.Succeeded {
		return etcdutil.ErrEtcdTxnConflict
	}
	return nil
}

func (s *metaStorageImpl) ListDeltas(ctx context.Context, sinceVersion uint64) ([]*pgmap.Delta, error) {
	startKey, endKey := makeDeltaScanRange(s.opts.RootPath, sinceVersion)
	values, err := etcdutil.Scan(ctx, s.client, startKey, endKey, s.opts.MaxScanLimit)
	if err != nil {
		return nil, errors.Wrapf(err, "list deltas, sinceVersion:%d", sinceVersion)
	}

	deltas := make([]*pgmap.Delta, 0, len(values))
	for _, value := range values {
		d, err := pgmap.DecodeDelta(value)
		if err != nil {
			return nil, ErrListDeltas.WithCausef("decode stored delta, err:%v", err)
		}
		deltas = append(deltas, d)
	}
	return deltas, nil
}

func (s *metaStorageImpl) DeleteDeltasThrough(ctx context.Context, version uint64) error {
	// The range end is exclusive, so this covers versions 0..version.
	startKey := makeDeltaKey(s.opts.RootPath, 0)
	endKey := makeDeltaKey(s.opts.RootPath, version+1)

	txn := etcdutil.NewSlowLogTxn(s.client)
	resp, err := txn.Then(clientv3.OpDelete(startKey, clientv3.WithRange(endKey))).Commit()
	if err != nil {
		e := ErrDeleteDeltas.WithCause(err)
		log.Error("delete pgmap deltas from etcd", zap.Uint64("throughVersion", version), zap.Error(e))
		return e
	}
	if !resp.Succeeded {
		return etcdutil.ErrEtcdTxnConflict
	}
	return nil
}
