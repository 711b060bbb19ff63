package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chazu/intcode/manifest"
	"github.com/chazu/intcode/pkg/intcode"
	"github.com/chazu/intcode/pkg/network"
	"github.com/chazu/intcode/pkg/pipeline"
	"github.com/chazu/intcode/pkg/trace"
)

// driver runs one program in the mode the manifest selects.
type driver struct {
	manifest *manifest.Manifest
	program  []int64
	stdin    *bufio.Reader
	stdout   io.Writer
}

func (d *driver) machineOptions() []intcode.Option {
	return []intcode.Option{intcode.WithMemoryLimit(d.manifest.Run.MaxMemory)}
}

func (d *driver) disassemble() error {
	_, err := io.WriteString(d.stdout, intcode.Disassemble(d.program))
	return err
}

func (d *driver) pipeline(ctx context.Context) error {
	p := d.manifest.Pipeline
	if p.Search {
		r, err := pipeline.MaxSignal(ctx, d.program, p.Phases, p.Feedback)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(d.stdout, "%d %s\n", r.Signal, joinValues(r.Phases))
		return err
	}
	s, err := pipeline.Amplify(ctx, d.program, p.Phases, p.Feedback)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(d.stdout, "%d\n", s)
	return err
}

func (d *driver) network(ctx context.Context) error {
	cfg := d.manifest.Network
	nw, err := network.New(d.program,
		network.WithSize(cfg.Size),
		network.WithNAT(cfg.NAT),
		network.WithMachineOptions(d.machineOptions()...),
	)
	if err != nil {
		return err
	}

	var p network.Packet
	if cfg.Mode == manifest.ModeFirst {
		p, err = nw.FirstNATPacket(ctx)
	} else {
		p, err = nw.RunNAT(ctx)
	}
	if err != nil {
		return err
	}
	log.Infof("network settled after %d ticks with packet (%d, %d)", nw.Ticks(), p.X, p.Y)
	_, err = fmt.Fprintf(d.stdout, "%d\n", p.Y)
	return err
}

// run drives a single machine to halt, asking stdin for more input when it
// runs dry.
func (d *driver) run() (err error) {
	opts := append(d.machineOptions(), intcode.WithInput(d.manifest.Run.Input...))
	m := intcode.New(d.program, opts...)

	step := m.Run
	if out := d.manifest.TracePath(); out != "" {
		rec := trace.NewRecorder(m)
		step = rec.Step
		defer func() {
			if werr := trace.WriteFile(out, rec.Events()); werr != nil {
				if err == nil {
					err = werr
				}
				return
			}
			log.Infof("wrote %d trace events to %s", len(rec.Events()), out)
		}()
	}

	var text intcode.ASCII
	for {
		a, err := step()
		if err != nil {
			if ferr := d.flush(&text); ferr != nil {
				log.Errorf("flushing output: %v", ferr)
			}
			return err
		}

		switch a.Kind {
		case intcode.KindOutput:
			if d.manifest.Run.ASCII {
				text.Add(a.Value)
			} else if _, err := fmt.Fprintf(d.stdout, "%d\n", a.Value); err != nil {
				return err
			}

		case intcode.KindNeedsInput:
			if err := d.flush(&text); err != nil {
				return err
			}
			if err := d.readInput(m); err != nil {
				return err
			}

		case intcode.KindHalt:
			return d.flush(&text)
		}
	}
}

// flush writes collected text, then each non-character value on its own
// line, and returns the first write error.
func (d *driver) flush(text *intcode.ASCII) error {
	defer text.Reset()
	if _, err := io.WriteString(d.stdout, text.String()); err != nil {
		return err
	}
	for _, v := range text.Values {
		if _, err := fmt.Fprintf(d.stdout, "%d\n", v); err != nil {
			return err
		}
	}
	return nil
}

// readInput queues the next stdin line: as characters plus a newline in
// ASCII mode, as comma-separated values otherwise.
func (d *driver) readInput(m *intcode.Machine) error {
	line, err := d.stdin.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w (ip=%d)", intcode.ErrInsufficientInput, m.IP())
		}
		return err
	}
	line = strings.TrimRight(line, "\r\n")

	if d.manifest.Run.ASCII {
		m.ProvideString(line + "\n")
		return nil
	}
	vs, err := intcode.Parse(line)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	m.Provide(vs...)
	return nil
}

func joinValues(vs []int64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
