package main

import (
	"fmt"

	"github.com/davidvella/xsort/recordio"
)

type headCommand struct {
	env *env

	Lines int `short:"n" long:"lines" description:"number of lines to print" default:"10"`

	Args struct {
		Input string `positional-arg-name:"input" description:"file to read, - for standard input"`
	} `positional-args:"yes" required:"yes"`
}

func (c *headCommand) Execute(_ []string) error {
	in, err := c.env.openInput(c.Args.Input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	lines, err := recordio.Head(in, c.Lines)
	for _, line := range lines {
		fmt.Fprintln(c.env.stdout, line)
	}
	return err
}
