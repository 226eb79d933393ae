package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/davidvella/xsort"
	"github.com/davidvella/xsort/chunk"
	"github.com/davidvella/xsort/memlimit"
	"github.com/davidvella/xsort/merge"
	"github.com/davidvella/xsort/metrics"
	"github.com/davidvella/xsort/store/pebble"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type sortCommand struct {
	global *globalOptions
	env    *env

	ChunkSize   int    `long:"chunk-size" description:"records per run; derived from --memory-limit when zero"`
	MemoryLimit int64  `long:"memory-limit" description:"soft memory limit of the process in bytes" default:"536870912"`
	TempDir     string `long:"temp-dir" description:"directory for runs" default-mask:"system temp dir"`
	Store       string `long:"store" description:"where runs are kept" default:"local" choice:"local" choice:"pebble"`
	Sorter      string `long:"sorter" description:"how chunks are sorted in memory" default:"slice" choice:"slice" choice:"btree"`
	Strategy    string `long:"strategy" description:"how runs are merged" default:"heap" choice:"heap" choice:"tournament"`
	Atomic      bool   `long:"atomic" description:"write the output under a temporary name and rename it once complete"`
	KeepRuns    bool   `long:"keep-runs" description:"leave runs in place after a successful sort"`
	MetricsAddr string `long:"metrics-addr" description:"serve Prometheus metrics on this address while sorting"`

	Args struct {
		Input  string `positional-arg-name:"input" description:"file to sort, - for standard input"`
		Output string `positional-arg-name:"output" description:"file to write, - for standard output"`
	} `positional-args:"yes" required:"yes"`
}

func (c *sortCommand) Execute(_ []string) error {
	log, err := c.global.logger(c.env.stderr)
	if err != nil {
		return err
	}

	limit, err := memlimit.Apply(c.MemoryLimit)
	if err != nil {
		return err
	}
	capacity := c.ChunkSize
	if capacity == 0 {
		capacity = memlimit.Capacity(limit)
	}
	log.WithFields(logrus.Fields{
		"memory_limit": limit,
		"chunk_size":   capacity,
	}).Debug("applied memory limit")

	strategy, err := merge.ParseStrategy(c.Strategy)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	opts := []xsort.Option{
		xsort.WithChunkCapacity(capacity),
		xsort.WithStrategy(strategy),
		xsort.WithAtomicOutput(c.Atomic),
		xsort.WithKeepRuns(c.KeepRuns),
		xsort.WithLogger(log),
		xsort.WithMetrics(metrics.New(reg)),
	}
	if c.TempDir != "" {
		opts = append(opts, xsort.WithTempDir(c.TempDir))
	}
	if c.Sorter == "btree" {
		opts = append(opts, xsort.WithSorter(chunk.NewBTreeSorter))
	}

	if c.Store == "pebble" {
		st, release, err := c.openPebble(log)
		if err != nil {
			return err
		}
		defer release()
		opts = append(opts, xsort.WithStore(st))
	}

	if c.MetricsAddr != "" {
		shutdown, err := serveMetrics(c.MetricsAddr, reg, log)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	sorter, err := xsort.New(opts...)
	if err != nil {
		return err
	}

	res, err := c.sort(sorter)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"runs":       res.Runs,
		"records":    res.Records,
		"discarded":  res.Discarded,
		"chunk_took": res.ChunkTook,
		"merge_took": res.MergeTook,
	}).Info("sorted")
	return nil
}

func (c *sortCommand) sort(sorter *xsort.Sorter) (xsort.Result, error) {
	ctx := c.env.ctx
	if c.Args.Input != "-" && c.Args.Output != "-" {
		return sorter.SortFile(ctx, c.Args.Input, c.Args.Output)
	}

	in, err := c.env.openInput(c.Args.Input)
	if err != nil {
		return xsort.Result{}, fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	out, err := c.env.createOutput(c.Args.Output)
	if err != nil {
		return xsort.Result{}, fmt.Errorf("failed to create output: %w", err)
	}
	res, err := sorter.Sort(ctx, in, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return res, err
}

// openPebble opens a database for the runs of one sort. release closes it and,
// unless runs are kept, removes it.
func (c *sortCommand) openPebble(log logrus.FieldLogger) (*pebble.Storage, func(), error) {
	dir, err := os.MkdirTemp(c.TempDir, "xsort-pebble-")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	st, err := pebble.NewStorage(pebble.StorageOptions{Path: dir})
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, nil, err
	}

	release := func() {
		if err := st.Close(); err != nil {
			log.WithError(err).Warn("failed to close run database")
		}
		if c.KeepRuns {
			log.WithField("dir", dir).Info("kept runs")
			return
		}
		if err := os.RemoveAll(dir); err != nil {
			log.WithError(err).Warn("failed to remove run database")
		}
	}
	return st, release, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, log logrus.FieldLogger) (func(), error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()
	log.WithField("addr", lis.Addr().String()).Info("serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
