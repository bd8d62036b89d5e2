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

// Command taskpool demonstrates package pool and package future: a factorial chain built from
// Async/Map, the wavefront knapsack and tree merge sort in package algo, and a metrics server
// that exposes pool activity to Prometheus.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pjasinski/taskpool/config"
)

var (
	cfgFile string
	cfg     config.Config
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskpool",
		Short: "taskpool runs demos of the pool/future worker pool and its parallel algorithms",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.BindEnv(v)
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("reading config: %w", err)
				}
			}
			loaded, err := config.LoadFrom(mergeDefaults(v))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg = loaded
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to a taskpool.yaml config file")

	root.AddCommand(buildChainCmd())
	root.AddCommand(buildKnapsackCmd())
	root.AddCommand(buildSortCmd())
	root.AddCommand(buildServeCmd())

	return root
}

// mergeDefaults seeds v with config.Default() before LoadFrom unmarshals it, mirroring what
// config.Load does internally -- needed here because the root command builds its own *viper.Viper
// to read the --config file and the environment into.
func mergeDefaults(v *viper.Viper) *viper.Viper {
	d := config.Default()
	v.SetDefault("pool_size", d.PoolSize)
	v.SetDefault("handle_sigint", d.HandleSIGINT)
	v.SetDefault("default_capacity", d.DefaultCapacity)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	return v
}
