/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/xid"
	"github.com/spf13/cobra"

	"github.com/acronis/go-lrucache/config"
	"github.com/acronis/go-lrucache/log"
	"github.com/acronis/go-lrucache/lrucache"
)

const envVarsPrefix = "lrudemo"

type rootOptions struct {
	configPath   string
	capacity     int
	inserts      int
	accessKeys   []int
	loadKeys     []int
	logLevel     string
	printMetrics bool
}

func newRootCommand() *cobra.Command {
	opts := rootOptions{}
	cmd := &cobra.Command{
		Use:   "lrudemo",
		Short: "Demonstrate the LRU cache eviction order",
		Long: `Insert key=i, value=i*100 pairs into a fixed-capacity LRU cache, access some keys,
and print the cache state (from the most to the least recently used entry) after every operation.

Configuration is read from the YAML file (if specified) and LRUDEMO_* environment variables,
e.g. LRUDEMO_CACHE_CAPACITY=3 or LRUDEMO_LOG_LEVEL=debug. Flags take precedence over both.`,
		Example: `  # Run with the defaults (capacity 5, 10 inserts, access keys 7, 3, 10)
  lrudemo

  # Smaller cache, print Prometheus metrics at the end
  lrudemo --capacity 3 --access 1,9,10 --print-metrics

  # Read keys through the cache from a flaky backend with retries
  lrudemo --load 2,3,3 --log-level debug`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cacheCfg, logCfg, err := loadConfig(cmd, opts)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), cacheCfg, logCfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to the YAML configuration file")
	cmd.Flags().IntVar(&opts.capacity, "capacity", lrucache.DefaultCapacity, "maximum number of cache entries")
	cmd.Flags().IntVarP(&opts.inserts, "inserts", "n", 10, "number of key=i, value=i*100 pairs to insert")
	cmd.Flags().IntSliceVar(&opts.accessKeys, "access", []int{7, 3, 10}, "keys to read after inserting")
	cmd.Flags().IntSliceVar(&opts.loadKeys, "load", nil, "keys to read through the cache from a backend that fails the first request")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "logging level (error, warn, info, debug)")
	cmd.Flags().BoolVar(&opts.printMetrics, "print-metrics", false, "print Prometheus metrics in text format at the end")
	return cmd
}

// demoLogConfig sends logs to stderr by default, so they don't interleave with the demo output.
type demoLogConfig struct {
	*log.Config
}

func (c demoLogConfig) SetProviderDefaults(dp config.DataProvider) {
	c.Config.SetProviderDefaults(dp)
	dp.SetDefault("output", string(log.OutputStderr))
	dp.SetDefault("format", string(log.FormatText))
}

func loadConfig(cmd *cobra.Command, opts rootOptions) (*lrucache.Config, *log.Config, error) {
	cacheCfg := lrucache.NewConfig("")
	logCfg := log.NewConfig()

	loader := config.NewDefaultLoader(envVarsPrefix)
	if cmd.Flags().Changed("capacity") {
		loader.DataProvider.Set(cacheCfg.KeyPrefix()+".capacity", opts.capacity)
	}
	if opts.logLevel != "" {
		loader.DataProvider.Set(logCfg.KeyPrefix()+".level", opts.logLevel)
	}

	var err error
	if opts.configPath != "" {
		err = loader.LoadFromFile(opts.configPath, config.DataTypeYAML, cacheCfg, demoLogConfig{logCfg})
	} else {
		err = loader.Load(cacheCfg, demoLogConfig{logCfg})
	}
	if err != nil {
		return nil, nil, err
	}
	return cacheCfg, logCfg, nil
}

func runDemo(ctx context.Context, out io.Writer, cacheCfg *lrucache.Config, logCfg *log.Config, opts rootOptions) error {
	logger, closeLogger := log.NewLogger(logCfg)
	defer closeLogger()
	logger = logger.With(log.String("run_id", xid.New().String()))

	var mc lrucache.MetricsCollector
	var registry *prometheus.Registry
	if cacheCfg.Metrics.Enabled || opts.printMetrics {
		promMetrics := lrucache.NewPrometheusMetricsWithOpts(lrucache.PrometheusMetricsOpts{
			Namespace: cacheCfg.Metrics.Namespace,
		})
		registry = prometheus.NewRegistry()
		promMetrics.MustRegisterIn(registry)
		mc = promMetrics
	}

	logger.Info("starting demo",
		log.Int("capacity", cacheCfg.Capacity),
		log.Int("inserts", opts.inserts),
		log.Any("access_keys", opts.accessKeys),
		log.Any("load_keys", opts.loadKeys),
		log.Bool("metrics", mc != nil),
	)

	d, err := newDemo(out, logger, cacheCfg.Capacity, mc)
	if err != nil {
		logger.Error("failed to create cache", log.Error(err))
		return err
	}
	params := demoParams{Inserts: opts.inserts, AccessKeys: opts.accessKeys, LoadKeys: opts.loadKeys}
	if err = d.run(ctx, params); err != nil {
		logger.Error("demo failed", log.Error(err))
		return err
	}

	if opts.printMetrics {
		if _, err = fmt.Fprintln(out); err != nil {
			return err
		}
		return writeMetrics(out, registry)
	}
	return nil
}

func writeMetrics(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
