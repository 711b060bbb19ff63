package intcode

import (
	"context"
	"errors"
	"testing"
	"time"
)

// Reads into cell 9, past the code, echoes it and loops.
var echoForever = []int64{3, 9, 4, 9, 1105, 1, 0}

func recvWithin(t *testing.T, e *Endpoint) (Action, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a, ok, err := e.RecvContext(ctx)
	if err != nil {
		t.Fatalf("Timed out waiting for an action")
	}
	return a, ok
}

func TestEndpointEcho(t *testing.T) {
	e := Start(New(echoForever))
	defer e.Stop()

	for _, v := range []int64{5, -8, 1 << 45} {
		if a, _ := recvWithin(t, e); a != NeedsInput {
			t.Fatalf("Expected needs-input, got %s", a)
		}
		if err := e.Send(v); err != nil {
			t.Fatalf("Send failed: %v", err)
		}
		if a, _ := recvWithin(t, e); a != OutputOf(v) {
			t.Fatalf("Expected output(%d), got %s", v, a)
		}
	}

	e.Stop()
	if err := e.Wait(); !errors.Is(err, ErrStopped) {
		t.Errorf("Expected ErrStopped, got %v", err)
	}
	if err := e.Send(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed after stop, got %v", err)
	}
}

func TestEndpointHalt(t *testing.T) {
	e := Start(New([]int64{104, 1, 104, 2, 99}), WithActionBuffer(4))

	var got []Action
	for a := range e.Actions() {
		got = append(got, a)
	}
	want := []Action{OutputOf(1), OutputOf(2), Halt}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("action %d: Expected %s, got %s", i, want[i], got[i])
		}
	}

	if err := e.Wait(); err != nil {
		t.Errorf("Expected clean halt, got %v", err)
	}
	if err := e.Send(3); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if _, ok := e.Recv(); ok {
		t.Error("Expected closed action channel")
	}
}

func TestEndpointFault(t *testing.T) {
	e := Start(New([]int64{104, 7, 42}))

	if a, ok := recvWithin(t, e); !ok || a != OutputOf(7) {
		t.Fatalf("Expected output(7), got %s", a)
	}
	a, ok := recvWithin(t, e)
	if ok {
		t.Fatal("Expected the action channel to close after a fault")
	}
	if a.Kind == KindOutput {
		t.Errorf("Expected a closed channel to yield no output, got %s", a)
	}
	if err := e.Wait(); !errors.Is(err, ErrUnknownOpcode) {
		t.Errorf("Expected ErrUnknownOpcode, got %v", err)
	}
}

func TestEndpointQueuesInputWhileDelivering(t *testing.T) {
	// Outputs 9, then echoes one input and halts.
	e := Start(New([]int64{104, 9, 3, 0, 4, 0, 99}))

	// The worker is blocked handing over output(9); it must still accept input.
	done := make(chan error, 1)
	go func() { done <- e.Send(4) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Send failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Send blocked while the worker was delivering an action")
	}

	for _, want := range []Action{OutputOf(9), OutputOf(4), Halt} {
		if a, _ := recvWithin(t, e); a != want {
			t.Fatalf("Expected %s, got %s", want, a)
		}
	}
	if err := e.Wait(); err != nil {
		t.Errorf("Expected clean halt, got %v", err)
	}
}

func TestEndpointInputClosed(t *testing.T) {
	e := Start(New(echoForever))
	close(e.Input())

	if a, _ := recvWithin(t, e); a != NeedsInput {
		t.Fatalf("Expected needs-input, got %s", a)
	}
	if _, ok := recvWithin(t, e); ok {
		t.Fatal("Expected the action channel to close")
	}
	if err := e.Wait(); !errors.Is(err, ErrInputClosed) {
		t.Errorf("Expected ErrInputClosed, got %v", err)
	}
}

func TestEndpointStopWithPendingAction(t *testing.T) {
	e := Start(New([]int64{104, 1, 99}))
	// Nobody reads output(1); stopping must not hang.
	e.Stop()
	e.Stop()
	if err := e.Wait(); !errors.Is(err, ErrStopped) {
		t.Errorf("Expected ErrStopped, got %v", err)
	}
}

func TestEndpointRecvContext(t *testing.T) {
	e := Start(New(echoForever))
	defer e.Stop()

	if a, _ := recvWithin(t, e); a != NeedsInput {
		t.Fatalf("Expected needs-input, got %s", a)
	}

	// The worker now waits for input and has nothing to deliver.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, err := e.RecvContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}

	if err := e.SendContext(context.Background(), 3); err != nil {
		t.Fatalf("SendContext failed: %v", err)
	}
	if a, _ := recvWithin(t, e); a != OutputOf(3) {
		t.Errorf("Expected output(3), got %s", a)
	}
}

func TestEndpointRing(t *testing.T) {
	// Two echo machines feeding each other must keep passing a token around.
	a := Start(New(echoForever))
	b := Start(New(echoForever))
	defer a.Stop()
	defer b.Stop()

	if err := a.Send(1); err != nil {
		t.Fatal(err)
	}

	hops := 0
	src, dst := a, b
	for hops < 10 {
		act, ok := recvWithin(t, src)
		if !ok {
			t.Fatalf("endpoint closed early: %v", src.Wait())
		}
		if act.Kind != KindOutput {
			continue
		}
		if err := dst.Send(act.Value + 1); err != nil {
			t.Fatal(err)
		}
		hops++
		src, dst = dst, src
	}
	act, _ := recvWithin(t, src)
	for act.Kind != KindOutput {
		act, _ = recvWithin(t, src)
	}
	if act.Value != 11 {
		t.Errorf("Expected token 11 after 10 hops, got %d", act.Value)
	}
}
