// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package log

const (
	defaultLogLevel = "info"
	defaultLogFile  = "stdout"
)

type Config struct {
	Level string `toml:"level" env:"LOG_LEVEL"`
	File  string `toml:"file" env:"LOG_FILE"`
}

func DefaultConfig() Config {
	return Config{
		Level: defaultLogLevel,
		File:  defaultLogFile,
	}
}
