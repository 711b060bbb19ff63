// Package pipeline chains Intcode machines into amplifier stages. Each stage
// runs on its own Endpoint; a router goroutine per stage forwards that
// stage's outputs to the next stage's input, and with feedback the last
// stage feeds the first.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/intcode/pkg/intcode"
)

var log = commonlog.GetLogger("intcode.pipeline")

var (
	ErrNoStages = errors.New("pipeline needs at least one phase")
	ErrNoSignal = errors.New("last stage halted without output")
)

// Amplify runs one machine per phase setting. Each machine first receives
// its phase, the first one then receives signal 0, and every output is
// forwarded to the next stage. It returns the last value output by the last
// stage once every stage has halted.
func Amplify(ctx context.Context, program []int64, phases []int64, feedback bool) (int64, error) {
	n := len(phases)
	if n == 0 {
		return 0, ErrNoStages
	}

	stages := make([]*intcode.Endpoint, n)
	for i, phase := range phases {
		m := intcode.New(program, intcode.WithInput(phase))
		if i == 0 {
			m.Provide(0)
		}
		stages[i] = intcode.Start(m)
	}
	defer func() {
		for _, s := range stages {
			s.Stop()
		}
	}()

	var signal int64
	var seen bool

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range stages {
		i, src := i, src
		var dst *intcode.Endpoint
		switch {
		case i+1 < n:
			dst = stages[i+1]
		case feedback:
			dst = stages[0]
		}
		last := i == n-1

		g.Go(func() error {
			for {
				a, ok, err := src.RecvContext(ctx)
				if err != nil {
					return err
				}
				if !ok {
					if err := src.Wait(); err != nil {
						return fmt.Errorf("stage %d: %w", i, err)
					}
					return nil
				}
				if a.Kind != intcode.KindOutput {
					continue
				}
				if last {
					signal, seen = a.Value, true
				}
				if dst == nil {
					continue
				}
				// A stage that already halted simply drops the value.
				if err := dst.SendContext(ctx, a.Value); err != nil && !errors.Is(err, intcode.ErrClosed) {
					return err
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	if !seen {
		return 0, ErrNoSignal
	}
	log.Debugf("phases %v -> %d", phases, signal)
	return signal, nil
}

// Result is the best phase ordering found by MaxSignal.
type Result struct {
	Signal int64
	Phases []int64
}

// MaxSignal tries every ordering of phases and returns the one producing the
// highest signal. Orderings are evaluated in parallel, at most GOMAXPROCS at
// a time.
func MaxSignal(ctx context.Context, program []int64, phases []int64, feedback bool) (Result, error) {
	if len(phases) == 0 {
		return Result{}, ErrNoStages
	}
	orders := Permutations(phases)
	signals := make([]int64, len(orders))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, order := range orders {
		i, order := i, order
		g.Go(func() error {
			s, err := Amplify(ctx, program, order, feedback)
			if err != nil {
				return fmt.Errorf("phases %v: %w", order, err)
			}
			signals[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	best := 0
	for i, s := range signals {
		if s > signals[best] {
			best = i
		}
	}
	log.Infof("best of %d orderings: %v -> %d", len(orders), orders[best], signals[best])
	return Result{Signal: signals[best], Phases: orders[best]}, nil
}

// Permutations returns every ordering of values, in lexicographic order of
// positions. values is not modified.
func Permutations(values []int64) [][]int64 {
	var out [][]int64
	used := make([]bool, len(values))
	cur := make([]int64, 0, len(values))

	var walk func()
	walk = func() {
		if len(cur) == len(values) {
			perm := make([]int64, len(cur))
			copy(perm, cur)
			out = append(out, perm)
			return
		}
		for i, v := range values {
			if used[i] {
				continue
			}
			used[i] = true
			cur = append(cur, v)
			walk()
			cur = cur[:len(cur)-1]
			used[i] = false
		}
	}
	walk()
	return out
}
