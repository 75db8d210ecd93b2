// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/cobaltstor/cobaltmeta/pkg/log"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	defaultHTTPPort           = 8080
	defaultEtcdEndpoint       = "http://127.0.0.1:2379"
	defaultEtcdRequestTimeout = 10 * time.Second
	defaultStorageRootPath    = "/cobaltmeta"
	defaultMaxScanLimit       = 100
	defaultSnapshotEvery      = 128
	defaultSweepInterval      = 30 * time.Second
	defaultSweepBatch         = 64
	defaultDataDir            = "/tmp/cobaltmeta"

	defaultLimiterEnable   = true
	defaultLimiterFillRate = 1000
	defaultLimiterCapacity = 2000
)

type LimiterConfig struct {
	Enable                        bool     `toml:"enable" env:"FLOW_LIMITER_ENABLE"`
	TokenBucketFillRate           int      `toml:"fill-rate" env:"FLOW_LIMITER_FILL_RATE"`
	TokenBucketBurstEventCapacity int      `toml:"capacity" env:"FLOW_LIMITER_CAPACITY"`
	UnLimitList                   []string `toml:"un-limit-list" env:"FLOW_LIMITER_UN_LIMIT_LIST" envSeparator:","`
}

type Config struct {
	Log log.Config `toml:"log"`

	HTTPPort int    `toml:"http-port" env:"HTTP_PORT"`
	DataDir  string `toml:"data-dir" env:"DATA_DIR"`

	EtcdEndpoints         string `toml:"etcd-endpoints" env:"ETCD_ENDPOINTS"`
	EtcdRequestTimeoutMs  int    `toml:"etcd-request-timeout-ms" env:"ETCD_REQUEST_TIMEOUT_MS"`
	StorageRootPath       string `toml:"storage-root-path" env:"STORAGE_ROOT_PATH"`
	StorageMaxScanLimit   int    `toml:"storage-max-scan-limit" env:"STORAGE_MAX_SCAN_LIMIT"`
	PGMapSnapshotEvery    uint64 `toml:"pgmap-snapshot-every" env:"PGMAP_SNAPSHOT_EVERY"`
	SweepIntervalMs       int    `toml:"sweep-interval-ms" env:"SWEEP_INTERVAL_MS"`
	SweepBatch            int    `toml:"sweep-batch" env:"SWEEP_BATCH"`

	Limiter LimiterConfig `toml:"flow-limiter"`
}

func (c *Config) EtcdEndpointList() []string {
	return strings.Split(c.EtcdEndpoints, ",")
}

func (c *Config) EtcdRequestTimeout() time.Duration {
	return time.Duration(c.EtcdRequestTimeoutMs) * time.Millisecond
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMs) * time.Millisecond
}

// ValidateAndAdjust fills unset fields with defaults and rejects values the
// server cannot run with.
func (c *Config) ValidateAndAdjust() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return ErrInvalidHTTPPort.WithCausef("port:%d", c.HTTPPort)
	}
	if c.EtcdEndpoints == "" {
		return ErrInvalidEtcdEndpoints
	}
	if c.EtcdRequestTimeoutMs <= 0 {
		c.EtcdRequestTimeoutMs = int(defaultEtcdRequestTimeout / time.Millisecond)
	}
	if c.StorageMaxScanLimit <= 0 {
		c.StorageMaxScanLimit = defaultMaxScanLimit
	}
	if c.PGMapSnapshotEvery == 0 {
		c.PGMapSnapshotEvery = defaultSnapshotEvery
	}
	if c.SweepIntervalMs <= 0 {
		c.SweepIntervalMs = int(defaultSweepInterval / time.Millisecond)
	}
	if c.SweepBatch <= 0 {
		c.SweepBatch = defaultSweepBatch
	}
	return nil
}

func makeDefaultConfig() *Config {
	return &Config{
		Log:                  log.DefaultConfig(),
		HTTPPort:             defaultHTTPPort,
		DataDir:              defaultDataDir,
		EtcdEndpoints:        defaultEtcdEndpoint,
		EtcdRequestTimeoutMs: int(defaultEtcdRequestTimeout / time.Millisecond),
		StorageRootPath:      defaultStorageRootPath,
		StorageMaxScanLimit:  defaultMaxScanLimit,
		PGMapSnapshotEvery:   defaultSnapshotEvery,
		SweepIntervalMs:      int(defaultSweepInterval / time.Millisecond),
		SweepBatch:           defaultSweepBatch,
		Limiter: LimiterConfig{
			Enable:                        defaultLimiterEnable,
			TokenBucketFillRate:           defaultLimiterFillRate,
			TokenBucketBurstEventCapacity: defaultLimiterCapacity,
			UnLimitList:                   []string{},
		},
	}
}

// Parser layers the config sources: defaults, then the toml file, then
// environment variables, with command line flags naming the file.
type Parser struct {
	flagSet        *flag.FlagSet
	cfg            *Config
	configFilePath string
}

func MakeConfigParser() (*Parser, error) {
	cfg := makeDefaultConfig()
	builder := &Parser{
		flagSet: flag.NewFlagSet("cobaltmeta", flag.ContinueOnError),
		cfg:     cfg,
	}

	fs := builder.flagSet
	fs.StringVar(&builder.configFilePath, "config", "", "config file path")
	return builder, nil
}

// Parse parses the command line arguments. A help request is reported as
// coderr.PrintHelpUsage so the caller can exit cleanly.
func (p *Parser) Parse(args []string) (*Config, error) {
	if err := p.flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, ErrHelpRequested
		}
		return nil, ErrInvalidCommandArgs.WithCause(err)
	}
	return p.cfg, nil
}

// ParseConfigFromToml overlays the toml config file if one was named.
func (p *Parser) ParseConfigFromToml() error {
	if len(p.configFilePath) == 0 {
		return nil
	}

	file, err := os.ReadFile(p.configFilePath)
	if err != nil {
		return errors.Wrapf(err, "read config file, path:%s", p.configFilePath)
	}

	if err := toml.Unmarshal(file, p.cfg); err != nil {
		return errors.Wrapf(err, "unmarshal toml config, path:%s", p.configFilePath)
	}
	return nil
}

// ParseConfigFromEnv overlays the environment variables.
func (p *Parser) ParseConfigFromEnv() error {
	if err := env.Parse(p.cfg); err != nil {
		return errors.Wrap(err, "parse config from env")
	}
	return nil
}
