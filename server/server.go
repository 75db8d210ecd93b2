// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package server

import (
	"context"

	"github.com/cobaltstor/cobaltmeta/pkg/log"
	"github.com/cobaltstor/cobaltmeta/server/cluster"
	"github.com/cobaltstor/cobaltmeta/server/config"
	"github.com/cobaltstor/cobaltmeta/server/etcdutil"
	"github.com/cobaltstor/cobaltmeta/server/limiter"
	"github.com/cobaltstor/cobaltmeta/server/pgmap"
	httpservice "github.com/cobaltstor/cobaltmeta/server/service/http"
	"github.com/cobaltstor/cobaltmeta/server/storage"
	"github.com/cobaltstor/cobaltmeta/server/sweep"
	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server ties the coordinator together: etcd-backed storage, the pgmap
// cluster state, the creating-group sweeper and the http service.
type Server struct {
	cfg *config.Config

	etcdClient  *clientv3.Client
	cluster     *cluster.Cluster
	httpService *httpservice.Service
}

// CreateServer builds a server from the config without starting anything.
func CreateServer(cfg *config.Config) (*Server, error) {
	etcdClient, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.EtcdEndpointList(),
		DialTimeout: cfg.EtcdRequestTimeout(),
	})
	if err != nil {
		return nil, ErrCreateEtcdClient.WithCause(err)
	}

	s := storage.NewStorageWithEtcdBackend(etcdClient, storage.Options{
		MaxScanLimit: cfg.StorageMaxScanLimit,
		RootPath:     cfg.StorageRootPath,
	})
	c := cluster.NewCluster(s, cluster.Options{SnapshotEvery: cfg.PGMapSnapshotEvery})

	flowLimiter := limiter.NewFlowLimiter(cfg.Limiter)
	api := httpservice.NewAPI(c, flowLimiter)

	return &Server{
		cfg:         cfg,
		etcdClient:  etcdClient,
		cluster:     c,
		httpService: httpservice.NewService(cfg.HTTPPort, api),
	}, nil
}

// Run loads the persisted state and serves until the context is canceled.
func (srv *Server) Run(ctx context.Context) error {
	loadCtx, cancel := context.WithTimeout(ctx, etcdutil.DefaultRequestTimeout)
	defer cancel()
	if err := srv.cluster.Load(loadCtx); err != nil {
		return ErrLoadCluster.WithCausef("err:%v", err)
	}

	// The sweeper reads the map the load installed.
	sweeper := sweep.NewSweeper(srv.cluster.Map(), logDispatch{}, sweep.Options{
		Interval: srv.cfg.SweepInterval(),
		Batch:    srv.cfg.SweepBatch,
	})

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info("http service started", zap.Int("port", srv.cfg.HTTPPort))
		return srv.httpService.Start()
	})
	eg.Go(func() error {
		return sweeper.Run(egCtx)
	})
	eg.Go(func() error {
		<-egCtx.Done()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), etcdutil.DefaultRequestTimeout)
		defer stopCancel()
		return srv.httpService.Stop(stopCtx)
	})

	// Cancellation is the normal way down, not a failure.
	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close releases the resources Run does not own.
func (srv *Server) Close() {
	if err := srv.etcdClient.Close(); err != nil {
		log.Error("close etcd client", zap.Error(err))
	}
	log.Info("server closed")
}

// logDispatch is the default create-announcement sink until a device
// transport is attached. It only records the intent.
type logDispatch struct{}

func (logDispatch) AnnounceCreate(_ context.Context, id pgmap.GroupID) error {
	log.Info("announce group create", zap.Uint64("group", uint64(id)))
	return nil
}
