// Command xsort sorts files of integers that do not fit in memory.
//
//	xsort generate -n 1000000 input.txt
//	xsort sort --memory-limit 536870912 input.txt sorted.txt
//	xsort head -n 20 sorted.txt
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/davidvella/xsort/monitoring"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
)

// globalOptions are shared by every command.
type globalOptions struct {
	LogLevel  string `long:"log-level" description:"minimum level of log entries" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error"`
	LogFormat string `long:"log-format" description:"format of log entries" default:"text" choice:"text" choice:"json"`
}

func (g *globalOptions) logger(out io.Writer) (*logrus.Logger, error) {
	return monitoring.NewLogger(monitoring.LogConfig{
		Level:  g.LogLevel,
		Format: g.LogFormat,
		Out:    out,
	})
}

// env is what commands read from and write to.
type env struct {
	ctx    context.Context
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newParser(e *env) *flags.Parser {
	opts := &globalOptions{}
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.ShortDescription = "external integer sort"

	mustAdd := func(name, short, long string, cmd flags.Commander) {
		if _, err := parser.AddCommand(name, short, long, cmd); err != nil {
			panic(err)
		}
	}
	mustAdd("generate", "Write random integers",
		"Write uniformly distributed random integers, one per line.",
		&generateCommand{global: opts, env: e})
	mustAdd("sort", "Sort a file of integers",
		"Sort integers one per line in bounded memory. Lines that are not integers are skipped.",
		&sortCommand{global: opts, env: e})
	mustAdd("head", "Print the first lines of a file",
		"Print the first lines of a file, for a quick look at sorted output.",
		&headCommand{env: e})

	return parser
}

func run(e *env, args []string) int {
	parser := newParser(e)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(e.stdout, flagsErr.Message)
			return 0
		}
		fmt.Fprintf(e.stderr, "xsort: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(&env{
		ctx:    ctx,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}, os.Args[1:])
	stop()
	os.Exit(code)
}

// openInput opens path for reading; "-" is standard input.
func (e *env) openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(e.stdin), nil
	}
	return os.Open(path)
}

// createOutput creates path; "-" is standard output.
func (e *env) createOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{e.stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
