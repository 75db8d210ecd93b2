// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package etcdutil

import (
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/server/v3/embed"
)

// PrepareEtcdServerAndClient starts a single-member embedded etcd for tests
// and returns a connected client. Cleanup is registered on the test.
func PrepareEtcdServerAndClient(t *testing.T) (*embed.Etcd, *clientv3.Client) {
	cfg := newTestSingleConfig(t)
	etcd, err := embed.StartEtcd(cfg)
	require.NoError(t, err)
	<-etcd.Server.ReadyNotify()

	client, err := clientv3.New(clientv3.Config{
		Endpoints: []string{cfg.ListenClientUrls[0].String()},
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		etcd.Close()
	})
	return etcd, client
}

func newTestSingleConfig(t *testing.T) *embed.Config {
	cfg := embed.NewConfig()
	cfg.Name = "test_etcd"
	cfg.Dir = t.TempDir()
	cfg.WalDir = ""
	cfg.Logger = "zap"
	cfg.LogOutputs = []string{"stdout"}

	pu := allocTestURL(t)
	cfg.ListenPeerUrls = []url.URL{*pu}
	cfg.AdvertisePeerUrls = cfg.ListenPeerUrls
	cu := allocTestURL(t)
	cfg.ListenClientUrls = []url.URL{*cu}
	cfg.AdvertiseClientUrls = cfg.ListenClientUrls

	cfg.StrictReconfigCheck = false
	cfg.InitialCluster = fmt.Sprintf("%s=%s", cfg.Name, &cfg.ListenPeerUrls[0])
	cfg.ClusterState = embed.ClusterStateFlagNew
	return cfg
}

// allocTestURL grabs a free localhost port. The listener is closed before the
// port is reused, small races are acceptable in tests.
func allocTestURL(t *testing.T) *url.URL {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	u, err := url.Parse(fmt.Sprintf("http://%s", addr))
	require.NoError(t, err)
	return u
}
