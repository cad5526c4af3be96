// Copyright 2022 MatrixOrigin.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"github.com/BurntSushi/toml"
	"github.com/matrixorigin/batchstore/client"
	"github.com/matrixorigin/batchstore/components/log"
	"go.uber.org/zap/zapcore"
)

// Config batch client configuration, loaded from a toml file.
type Config struct {
	// Name client name, used as the logger name
	Name string `toml:"name"`
	// MaxRetries max number of attempts RunInBatch performs before giving up
	// on commit conflicts
	MaxRetries int `toml:"maxRetries"`
	// LogLevel zap log level, one of debug, info, warn, error
	LogLevel string `toml:"logLevel"`
}

// Adjust fills default values
func (c *Config) Adjust() {
	if c.Name == "" {
		c.Name = "batch"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Load loads the config from a toml file
func Load(path string) (*Config, error) {
	c := &Config{}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, err
	}
	c.Adjust()
	return c, nil
}

// Parse parses the config from toml data
func Parse(data string) (*Config, error) {
	c := &Config{}
	if _, err := toml.Decode(data, c); err != nil {
		return nil, err
	}
	c.Adjust()
	return c, nil
}

// Options returns the client options the config describes
func (c *Config) Options() ([]client.Option, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, err
	}

	return []client.Option{
		client.WithMaxRetries(c.MaxRetries),
		client.WithLogger(log.GetDefaultZapLoggerWithLevel(level).Named(c.Name)),
	}, nil
}
