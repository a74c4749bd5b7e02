package solver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vcforge/houdini/internal/solver"
)

// fakeSolverScript is a tiny shell program that behaves enough like an
// SMT-LIB solver for exercising the session's send/await-response loop:
// it echoes one canned reply per line read from stdin.
const fakeSolverScript = `
while IFS= read -r line; do
  case "$line" in
    "(check-sat)") echo "sat" ;;
    "(get-info :reason-unknown)") echo "(:reason-unknown \"\")" ;;
    *) echo "(progress (labels foo bar))" ;;
  esac
done
`

func newFakeSession(t *testing.T) *solver.Session {
	t.Helper()
	s := solver.New(solver.Config{
		Command: "sh",
		Args:    []string{"-c", fakeSolverScript},
	})
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSession_SendAwaitResponse_FIFOOrder(t *testing.T) {
	s := newFakeSession(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Send("(noise)"))
	require.NoError(t, s.Send("(check-sat)"))
	require.NoError(t, s.Send("(get-info :reason-unknown)"))

	// "(noise)" triggers a `(progress ...)` reply which is swallowed by
	// the classifier and never surfaces to an awaiter, so the two
	// await-response calls below see check-sat's and reason-unknown's
	// replies in submission order despite the extra line in between.
	first, err := s.AwaitResponse(ctx)
	require.NoError(t, err)
	require.Equal(t, "sat", first.Name)

	second, err := s.AwaitResponse(ctx)
	require.NoError(t, err)
	require.Equal(t, ":reason-unknown", second.Name)
}

func TestSession_AwaitResponse_CancellationReturnsError(t *testing.T) {
	s := solver.New(solver.Config{Command: "sh", Args: []string{"-c", "sleep 5"}})
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.AwaitResponse(ctx)
	require.ErrorIs(t, err, solver.ErrCancelled)
}

func TestSession_ProcessExitResolvesPendingWithNull(t *testing.T) {
	s := solver.New(solver.Config{Command: "sh", Args: []string{"-c", "exit 0"}})
	require.NoError(t, s.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := s.AwaitResponse(ctx)
	require.NoError(t, err)
	require.True(t, resp.IsID())
	require.Equal(t, "", resp.Name)
}

func TestSession_StartMissingExecutable(t *testing.T) {
	s := solver.New(solver.Config{Command: "definitely-not-a-real-solver-binary"})
	err := s.Start(context.Background())
	require.ErrorIs(t, err, solver.ErrProcessStartFailure)
}
