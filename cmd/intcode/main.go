// Intcode CLI - runs, disassembles, chains and networks Intcode programs
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/pkg/intcode"
)

var log = commonlog.GetLogger("intcode.cli")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// verbosity is a repeatable -v flag.
type verbosity int

func (v *verbosity) String() string   { return strconv.Itoa(int(*v)) }
func (v *verbosity) IsBoolFlag() bool { return true }

func (v *verbosity) Set(s string) error {
	if s == "true" {
		*v++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*v = verbosity(n)
	return nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("intcode", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to an intcode.toml (default: search upwards from the working directory)")
	input := fs.String("input", "", "Comma-separated input values queued before the run")
	ascii := fs.Bool("ascii", false, "Treat output as text and read further input lines from stdin")
	disasm := fs.Bool("disasm", false, "Disassemble the program instead of running it")
	phases := fs.String("pipeline", "", "Run an amplifier chain with these comma-separated phases")
	feedback := fs.Bool("feedback", false, "Feed the last amplifier back into the first")
	search := fs.Bool("search", false, "Try every ordering of the -pipeline phases and report the best")
	netSize := fs.Int("network", 0, "Run a packet network of N machines")
	netMode := fs.String("network-mode", "", "Network result: 'nat' (first repeated NAT delivery) or 'first' (first NAT packet)")
	maxMemory := fs.Int("max-memory", 0, "Cap on addressable memory cells")
	tracePath := fs.String("trace", "", "Record every action to this file as CBOR")
	var verbose verbosity
	fs.Var(&verbose, "v", "Increase log verbosity (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: intcode [options] [program]\n\n")
		fmt.Fprintf(stderr, "Runs an Intcode program. Settings not given as flags come from intcode.toml.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  intcode -input 1 day9.txt                      # Run with input 1\n")
		fmt.Fprintf(stderr, "  intcode -disasm day5.txt                       # Print a listing\n")
		fmt.Fprintf(stderr, "  intcode -pipeline 5,6,7,8,9 -feedback -search day7.txt\n")
		fmt.Fprintf(stderr, "  intcode -network 50 -network-mode first day23.txt\n")
		fmt.Fprintf(stderr, "  intcode -ascii day25.txt                       # Interactive text program\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	m, err := loadManifest(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// Flags given on the command line win over the manifest.
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			m.Run.Input, flagErr = parseValues(*input, flagErr)
		case "ascii":
			m.Run.ASCII = *ascii
		case "max-memory":
			m.Run.MaxMemory = *maxMemory
		case "pipeline":
			m.Pipeline.Phases, flagErr = parseValues(*phases, flagErr)
		case "feedback":
			m.Pipeline.Feedback = *feedback
		case "search":
			m.Pipeline.Search = *search
		case "network":
			m.Network.Size = *netSize
			m.Network.Enabled = *netSize > 0
		case "network-mode":
			m.Network.Mode = *netMode
		case "trace":
			m.Trace.Output = *tracePath
		case "v":
			m.Log.Verbosity = int(verbose)
		}
	})
	if flagErr == nil {
		flagErr = m.Validate()
	}
	if flagErr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", flagErr)
		return 2
	}

	commonlog.Configure(m.Log.Verbosity, m.LogPath())

	path := m.ProgramPath()
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if path == "" {
		fmt.Fprintf(stderr, "Error: no program given\n")
		fs.Usage()
		return 2
	}

	program, err := intcode.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	log.Infof("loaded %s (%d cells)", path, len(program))

	cli := &driver{manifest: m, program: program, stdin: bufio.NewReader(stdin), stdout: stdout}
	switch {
	case *disasm:
		err = cli.disassemble()
	case len(m.Pipeline.Phases) > 0:
		err = cli.pipeline(ctx)
	case m.Network.Enabled:
		err = cli.network(ctx)
	default:
		err = cli.run()
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func loadManifest(path string) (*manifest.Manifest, error) {
	if path != "" {
		return manifest.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, err := manifest.FindAndLoad(wd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return manifest.Default(wd), nil
	}
	log.Debugf("using %s", m.Dir)
	return m, nil
}

// parseValues parses a comma-separated list unless an earlier flag failed.
func parseValues(s string, prev error) ([]int64, error) {
	if prev != nil {
		return nil, prev
	}
	if s == "" {
		return nil, nil
	}
	vs, err := intcode.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid value list %q: %w", s, err)
	}
	return vs, nil
}
