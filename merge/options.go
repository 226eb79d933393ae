package merge

import (
	"fmt"
	"strings"

	"github.com/davidvella/xsort/metrics"
	"github.com/sirupsen/logrus"
)

// Strategy selects how the smallest head among the open runs is found.
type Strategy int

const (
	Heap Strategy = iota
	Tournament
)

func (s Strategy) String() string {
	switch s {
	case Heap:
		return "heap"
	case Tournament:
		return "tournament"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy returns the strategy called name.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(name) {
	case "heap":
		return Heap, nil
	case "tournament", "loser":
		return Tournament, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// checkInterval is how many records are merged between context checks.
const checkInterval = 4096

type options struct {
	strategy Strategy
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
}

// Option configures a Merger.
type Option func(*options)

func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func defaultOptions() options {
	return options{
		strategy: Heap,
	}
}
