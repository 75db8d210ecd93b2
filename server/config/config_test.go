// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cobaltstor/cobaltmeta/pkg/coderr"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	re := require.New(t)
	parser, err := MakeConfigParser()
	re.NoError(err)

	cfg, err := parser.Parse([]string{})
	re.NoError(err)
	re.NoError(cfg.ValidateAndAdjust())
	re.Equal(defaultHTTPPort, cfg.HTTPPort)
	re.Equal([]string{defaultEtcdEndpoint}, cfg.EtcdEndpointList())
	re.Equal(defaultEtcdRequestTimeout, cfg.EtcdRequestTimeout())
}

func TestParseHelp(t *testing.T) {
	re := require.New(t)
	parser, err := MakeConfigParser()
	re.NoError(err)

	_, err = parser.Parse([]string{"-h"})
	re.Error(err)
	re.True(coderr.Is(err, coderr.PrintHelpUsage))
}

func TestParseTomlOverlay(t *testing.T) {
	re := require.New(t)
	path := filepath.Join(t.TempDir(), "meta.toml")
	re.NoError(os.WriteFile(path, []byte(`
http-port = 9090
etcd-endpoints = "http://etcd0:2379,http://etcd1:2379"
pgmap-snapshot-every = 16

[log]
level = "debug"

[flow-limiter]
enable = false
`), 0o600))

	parser, err := MakeConfigParser()
	re.NoError(err)
	cfg, err := parser.Parse([]string{"-config", path})
	re.NoError(err)
	re.NoError(parser.ParseConfigFromToml())
	re.NoError(cfg.ValidateAndAdjust())

	re.Equal(9090, cfg.HTTPPort)
	re.Equal([]string{"http://etcd0:2379", "http://etcd1:2379"}, cfg.EtcdEndpointList())
	re.Equal(uint64(16), cfg.PGMapSnapshotEvery)
	re.Equal("debug", cfg.Log.Level)
	re.False(cfg.Limiter.Enable)
}

func TestParseEnvOverlay(t *testing.T) {
	re := require.New(t)
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("STORAGE_ROOT_PATH", "/other-root")

	parser, err := MakeConfigParser()
	re.NoError(err)
	cfg, err := parser.Parse([]string{})
	re.NoError(err)
	re.NoError(parser.ParseConfigFromEnv())
	re.NoError(cfg.ValidateAndAdjust())

	re.Equal(7070, cfg.HTTPPort)
	re.Equal("/other-root", cfg.StorageRootPath)
}

func TestValidateRejectsBadValues(t *testing.T) {
	re := require.New(t)

	cfg := makeDefaultConfig()
	cfg.HTTPPort = -1
	re.Error(cfg.ValidateAndAdjust())

	cfg = makeDefaultConfig()
	cfg.EtcdEndpoints = ""
	re.Error(cfg.ValidateAndAdjust())
}
