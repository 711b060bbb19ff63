package intcode

import (
	"context"
	"sync"

	"github.com/tliron/commonlog"
)

var endpointLog = commonlog.GetLogger("intcode.endpoint")

// Endpoint runs a Machine on a dedicated goroutine. Callers feed it through
// the input channel and read its actions from the action channel; the
// machine itself is never touched from outside that goroutine.
//
// The worker forwards every action it gets from Run. After a NeedsInput it
// blocks until one input value arrives. While it is blocked handing an action
// over, it keeps accepting input and queues it on the machine, so a ring of
// endpoints feeding each other cannot deadlock on input.
type Endpoint struct {
	machine *Machine
	in      chan int64
	actions chan Action
	quit    chan struct{}
	done    chan struct{}

	// recv is the worker's view of in; nil once the caller closed it.
	recv     <-chan int64
	stopOnce sync.Once
	err      error
}

// EndpointOption configures an Endpoint.
type EndpointOption func(*endpointConfig)

type endpointConfig struct {
	actionBuffer int
}

// WithActionBuffer sets the capacity of the action channel. The default is
// unbuffered.
func WithActionBuffer(n int) EndpointOption {
	return func(c *endpointConfig) { c.actionBuffer = n }
}

// Start hands m to a new worker goroutine and returns its endpoint. The
// caller must not use m afterwards.
func Start(m *Machine, opts ...EndpointOption) *Endpoint {
	cfg := &endpointConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	e := &Endpoint{
		machine: m,
		in:      make(chan int64),
		actions: make(chan Action, cfg.actionBuffer),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	e.recv = e.in
	go e.loop()
	return e
}

// loop drives the machine until it halts, faults or is stopped.
func (e *Endpoint) loop() {
	defer close(e.done)
	defer close(e.actions)

	for {
		a, err := e.machine.Run()
		if err != nil {
			endpointLog.Errorf("machine faulted: %v", err)
			e.err = err
			return
		}
		if !e.deliver(a) {
			return
		}

		switch a.Kind {
		case KindHalt:
			endpointLog.Debugf("machine halted at ip=%d", e.machine.IP())
			return
		case KindNeedsInput:
			if e.machine.Pending() > 0 {
				continue
			}
			if e.recv == nil {
				e.err = ErrInputClosed
				return
			}
			select {
			case v, ok := <-e.recv:
				if !ok {
					e.err = ErrInputClosed
					return
				}
				e.machine.Provide(v)
			case <-e.quit:
				e.err = ErrStopped
				return
			}
		}
	}
}

// deliver hands a to the action channel, queueing any input that arrives in
// the meantime. It returns false if the endpoint was stopped first.
func (e *Endpoint) deliver(a Action) bool {
	for {
		select {
		case e.actions <- a:
			return true
		case v, ok := <-e.recv:
			if !ok {
				e.recv = nil
				continue
			}
			e.machine.Provide(v)
		case <-e.quit:
			endpointLog.Errorf("endpoint stopped with undelivered %s", a)
			e.err = ErrStopped
			return false
		}
	}
}

// Input returns the channel input values are sent on. Closing it tells the
// worker no more input will come.
func (e *Endpoint) Input() chan<- int64 {
	return e.in
}

// Actions returns the channel actions are delivered on. It is closed after
// Halt, after a fault, or when the endpoint is stopped.
func (e *Endpoint) Actions() <-chan Action {
	return e.actions
}

// Send delivers v to the machine. It returns ErrClosed instead of blocking
// once the worker has exited.
func (e *Endpoint) Send(v int64) error {
	select {
	case e.in <- v:
		return nil
	case <-e.done:
		return ErrClosed
	}
}

// SendContext is Send bounded by ctx.
func (e *Endpoint) SendContext(ctx context.Context, v int64) error {
	select {
	case e.in <- v:
		return nil
	case <-e.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv returns the next action. ok is false once the action channel has
// been closed.
func (e *Endpoint) Recv() (a Action, ok bool) {
	a, ok = <-e.actions
	return a, ok
}

// RecvContext is Recv bounded by ctx.
func (e *Endpoint) RecvContext(ctx context.Context) (Action, bool, error) {
	select {
	case a, ok := <-e.actions:
		return a, ok, nil
	case <-ctx.Done():
		return Action{}, false, ctx.Err()
	}
}

// Done is closed when the worker goroutine exits.
func (e *Endpoint) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the worker exits and returns why it stopped: nil after
// a clean halt, the *Fault after a malformed instruction, ErrStopped after
// Stop or ErrInputClosed if input ran dry for good.
func (e *Endpoint) Wait() error {
	<-e.done
	return e.err
}

// Stop shuts the worker down. It is safe to call more than once and after
// the worker has already exited.
func (e *Endpoint) Stop() {
	e.stopOnce.Do(func() { close(e.quit) })
}
