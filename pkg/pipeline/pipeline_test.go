package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/intcode/pkg/intcode"
)

var (
	chainA = []int64{3, 15, 3, 16, 1002, 16, 10, 16, 1, 16, 15, 15, 4, 15, 99, 0, 0}
	chainB = []int64{
		3, 23, 3, 24, 1002, 24, 10, 24, 1002, 23, -1, 23, 101, 5, 23, 23, 1, 24, 23,
		23, 4, 23, 99, 0, 0,
	}
	loopA = []int64{
		3, 26, 1001, 26, -4, 26, 3, 27, 1002, 27, 2, 27, 1, 27, 26, 27, 4, 27, 1001,
		28, -1, 28, 1005, 28, 6, 99, 0, 0, 5,
	}
	loopB = []int64{
		3, 52, 1001, 52, -5, 52, 3, 53, 1, 52, 56, 54, 1007, 54, 5, 55, 1005, 55, 26,
		1001, 54, -5, 54, 1105, 1, 12, 1, 53, 54, 53, 1008, 54, 0, 55, 1001, 55, 1,
		55, 2, 53, 55, 53, 4, 53, 1001, 56, -1, 56, 1005, 56, 6, 99, 0, 0, 0, 0, 10,
	}
)

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestAmplifyChain(t *testing.T) {
	ctx := testContext(t)

	s, err := Amplify(ctx, chainA, []int64{4, 3, 2, 1, 0}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(43210), s)

	s, err = Amplify(ctx, chainB, []int64{0, 1, 2, 3, 4}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(54321), s)
}

func TestAmplifyFeedback(t *testing.T) {
	ctx := testContext(t)

	s, err := Amplify(ctx, loopA, []int64{9, 8, 7, 6, 5}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(139629729), s)

	s, err = Amplify(ctx, loopB, []int64{9, 7, 8, 5, 6}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(18216), s)
}

func TestAmplifyMatchesSequentialMachines(t *testing.T) {
	// Same chain driven by hand with synchronous machines.
	phases := []int64{1, 0, 4, 3, 2}
	signal := int64(0)
	for _, p := range phases {
		out, err := intcode.Compute(chainB, p, signal)
		require.NoError(t, err)
		require.Len(t, out, 1)
		signal = out[0]
	}

	s, err := Amplify(testContext(t), chainB, phases, false)
	require.NoError(t, err)
	assert.Equal(t, signal, s)
}

func TestMaxSignal(t *testing.T) {
	ctx := testContext(t)

	r, err := MaxSignal(ctx, chainA, []int64{0, 1, 2, 3, 4}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(43210), r.Signal)
	assert.Equal(t, []int64{4, 3, 2, 1, 0}, r.Phases)

	r, err = MaxSignal(ctx, loopA, []int64{5, 6, 7, 8, 9}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(139629729), r.Signal)
	assert.Equal(t, []int64{9, 8, 7, 6, 5}, r.Phases)
}

func TestAmplifyFault(t *testing.T) {
	_, err := Amplify(testContext(t), []int64{3, 0, 42}, []int64{1, 2}, false)
	assert.ErrorIs(t, err, intcode.ErrUnknownOpcode)
}

func TestAmplifyNoSignal(t *testing.T) {
	_, err := Amplify(testContext(t), []int64{3, 0, 99}, []int64{1}, false)
	assert.ErrorIs(t, err, ErrNoSignal)
}

func TestAmplifyCancelled(t *testing.T) {
	// Every stage waits for more input than it will ever get.
	starving := []int64{3, 0, 3, 1, 3, 2, 99}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Amplify(ctx, starving, []int64{1, 2}, false)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAmplifyNoStages(t *testing.T) {
	_, err := Amplify(context.Background(), chainA, nil, false)
	assert.ErrorIs(t, err, ErrNoStages)
}

func TestPermutations(t *testing.T) {
	assert.Equal(t, [][]int64{{1, 2}, {2, 1}}, Permutations([]int64{1, 2}))
	assert.Len(t, Permutations([]int64{5, 6, 7, 8, 9}), 120)
	assert.Equal(t, [][]int64{{}}, Permutations(nil))

	in := []int64{3, 1, 2}
	Permutations(in)
	assert.Equal(t, []int64{3, 1, 2}, in)
}
