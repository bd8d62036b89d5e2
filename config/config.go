/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package config loads the settings cmd/taskpool needs to build a pool.Pool and its supporting
// telemetry: worker count, whether to install the SIGINT handler, the default knapsack capacity
// used by the demo commands, and the address the metrics server listens on.
//
// Config is read through viper so it can come from a YAML file, environment variables (prefixed
// TASKPOOL_) or flags bound by the caller, in that order of increasing priority -- the same
// layering viper gives any cobra command that binds its flags into the same viper instance.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// ErrInvalidPoolSize is returned by Load when pool_size is zero or negative.
var ErrInvalidPoolSize = errors.New("config: pool_size must be greater than zero")

// Config is the root of the YAML configuration file.
type Config struct {
	// PoolSize is the fixed number of worker goroutines passed to pool.NewPool.
	PoolSize int `mapstructure:"pool_size" yaml:"pool_size"`

	// HandleSIGINT mirrors pool.Config.HandleSIGINT.
	HandleSIGINT bool `mapstructure:"handle_sigint" yaml:"handle_sigint"`

	// DefaultCapacity is the knapsack capacity the demo commands fall back to when the caller
	// does not pass --capacity explicitly.
	DefaultCapacity int `mapstructure:"default_capacity" yaml:"default_capacity"`

	// MetricsAddr is the listen address (host:port) for the Prometheus /metrics endpoint served
	// by cmd/taskpool serve.
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

// Default returns the configuration used when no file, environment variable or flag overrides a
// field.
func Default() Config {
	return Config{
		PoolSize:        4,
		HandleSIGINT:    true,
		DefaultCapacity: 50,
		MetricsAddr:     ":9090",
	}
}

// Load reads configuration from path (a YAML file; may be empty, in which case only defaults and
// the environment are consulted) and from any TASKPOOL_-prefixed environment variable, and
// validates the result.
//
// Callers that also want flag overrides should build their own *viper.Viper, bind flags into it
// (for example with viper's BindPFlags) and BindEnv, and call LoadFrom instead.
func Load(path string) (Config, error) {
	v := viper.New()
	applyDefaults(v)
	BindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	return LoadFrom(v)
}

// LoadFrom unmarshals and validates a Config out of an already-populated viper instance. It is
// exported so cmd/taskpool can layer cobra flag bindings on top of file and environment values
// before resolving the final configuration.
func LoadFrom(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.PoolSize <= 0 {
		return Config{}, ErrInvalidPoolSize
	}
	return cfg, nil
}

// applyDefaults seeds v with Default()'s values so unset fields still resolve to something
// sensible after Unmarshal.
func applyDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("pool_size", d.PoolSize)
	v.SetDefault("handle_sigint", d.HandleSIGINT)
	v.SetDefault("default_capacity", d.DefaultCapacity)
	v.SetDefault("metrics_addr", d.MetricsAddr)
}

// BindEnv makes v resolve TASKPOOL_POOL_SIZE, TASKPOOL_HANDLE_SIGINT, TASKPOOL_DEFAULT_CAPACITY
// and TASKPOOL_METRICS_ADDR as overrides for the matching config key.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("taskpool")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}
