package loop_test

import (
	"context"
	"testing"
	"time"

	"github.com/gruntwork-io/imgopen/internal/loop"
	"github.com/gruntwork-io/imgopen/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNormalTasksRunBeforeIdle(t *testing.T) {
	t.Parallel()

	lp := loop.New(log.Discard())

	var order []string

	lp.PostIdle(func() { order = append(order, "idle-1") })
	lp.Post(func() { order = append(order, "normal-1") })
	lp.PostIdle(func() {
		order = append(order, "idle-2")
		lp.Stop()
	})
	lp.Post(func() {
		order = append(order, "normal-2")
		// scheduled from inside the loop, still ahead of the pending idle tasks
		lp.Post(func() { order = append(order, "normal-3") })
	})

	require.NoError(t, lp.Run(context.Background()))
	assert.Equal(t, []string{"normal-1", "normal-2", "normal-3", "idle-1", "idle-2"}, order)
}

func TestGoResumesOnLoop(t *testing.T) {
	t.Parallel()

	lp := loop.New(log.Discard())

	var (
		fromWorker int
		result     int
	)

	lp.Go(func() {
		time.Sleep(10 * time.Millisecond)
		fromWorker = 21
	}, func() {
		result = fromWorker * 2
		lp.Stop()
	})

	require.NoError(t, lp.Run(context.Background()))
	lp.Wait()

	assert.Equal(t, 42, result)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	lp := loop.New(log.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := lp.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.False(t, lp.Post(func() {}), "tasks posted after the loop stopped are dropped")
}

func TestStopDiscardsPendingTasks(t *testing.T) {
	t.Parallel()

	lp := loop.New(log.Discard())

	ran := false

	lp.Post(lp.Stop)
	lp.Post(func() { ran = true })

	require.NoError(t, lp.Run(context.Background()))
	assert.False(t, ran)
	assert.Zero(t, lp.Pending())
}
