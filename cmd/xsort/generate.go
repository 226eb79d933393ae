package main

import (
	"fmt"

	"github.com/davidvella/xsort/generate"
	"github.com/sirupsen/logrus"
)

type generateCommand struct {
	global *globalOptions
	env    *env

	Count int64  `short:"n" long:"count" description:"number of integers to write" default:"1000000"`
	Seed  uint64 `long:"seed" description:"seed for reproducible output; random when zero"`
	Min   int64  `long:"min" description:"smallest value, inclusive" default:"1"`
	Max   int64  `long:"max" description:"largest value, exclusive" default:"1000000000"`

	Args struct {
		Output string `positional-arg-name:"output" description:"file to write, - for standard output"`
	} `positional-args:"yes" required:"yes"`
}

func (c *generateCommand) Execute(_ []string) error {
	log, err := c.global.logger(c.env.stderr)
	if err != nil {
		return err
	}

	opts := []generate.Option{generate.WithRange(c.Min, c.Max)}
	if c.Seed != 0 {
		opts = append(opts, generate.WithSeed(c.Seed))
	}

	out, err := c.env.createOutput(c.Args.Output)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	err = generate.Write(out, c.Count, opts...)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"count":  c.Count,
		"output": c.Args.Output,
	}).Info("generated input")
	return nil
}
