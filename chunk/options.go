package chunk

import (
	"github.com/davidvella/xsort/metrics"
	"github.com/davidvella/xsort/store"
	"github.com/sirupsen/logrus"
)

// DefaultCapacity is the number of records per chunk when none is given.
const DefaultCapacity = 1 << 20

type options struct {
	capacity  int
	newSorter SorterFunc
	names     store.NameFunc
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics
}

// Option configures a Producer.
type Option func(*options)

// WithCapacity sets the maximum number of records held in memory at once.
func WithCapacity(c int) Option {
	return func(o *options) {
		o.capacity = c
	}
}

// WithSorter sets how a chunk is sorted in memory.
func WithSorter(f SorterFunc) Option {
	return func(o *options) {
		o.newSorter = f
	}
}

// WithNames sets how runs are named.
func WithNames(f store.NameFunc) Option {
	return func(o *options) {
		o.names = f
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets the metrics to update.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func defaultOptions() options {
	return options{
		capacity:  DefaultCapacity,
		newSorter: NewSliceSorter,
	}
}
