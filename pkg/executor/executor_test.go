package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSyncReturnsValue(t *testing.T) {
	ex := New(2)
	defer ex.Shutdown()

	v, err := RunSync(context.Background(), ex, func() (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRunSyncPropagatesError(t *testing.T) {
	ex := New(2)
	defer ex.Shutdown()

	boom := errors.New("boom")
	_, err := RunSync(context.Background(), ex, func() (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunSyncRespectsContextCancellation(t *testing.T) {
	ex := New(1)
	defer ex.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunSync(ctx, ex, func() (int, error) {
		time.Sleep(50 * time.Millisecond)
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunSyncBoundsConcurrency(t *testing.T) {
	ex := New(2)
	defer ex.Shutdown()

	var active int32
	var maxActive int32
	release := make(chan struct{})

	for i := 0; i < 5; i++ {
		go func() {
			RunSync(context.Background(), ex, func() (int, error) {
				n := atomic.AddInt32(&active, 1)
				for {
					old := atomic.LoadInt32(&maxActive)
					if n <= old || atomic.CompareAndSwapInt32(&maxActive, old, n) {
						break
					}
				}
				<-release
				atomic.AddInt32(&active, -1)
				return 0, nil
			})
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	time.Sleep(50 * time.Millisecond)

	assert.LessOrEqual(t, atomic.LoadInt32(&maxActive), int32(2))
}

func TestRunSyncGeneratorStreamsValues(t *testing.T) {
	ex := New(2)
	defer ex.Shutdown()

	ch := RunSyncGenerator(context.Background(), ex, 0, func(emit func(int) bool) {
		for i := 0; i < 3; i++ {
			if !emit(i) {
				return
			}
		}
	})

	var got []int
	for item := range ch {
		require.NoError(t, item.Err)
		got = append(got, item.Value)
	}
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestRunSyncGeneratorRecoversPanic(t *testing.T) {
	ex := New(2)
	defer ex.Shutdown()

	ch := RunSyncGenerator(context.Background(), ex, 0, func(emit func(int) bool) {
		panic("kaboom")
	})

	var sawErr bool
	for item := range ch {
		if item.Err != nil {
			sawErr = true
		}
	}
	assert.True(t, sawErr)
}

func TestShutdownDrainsInFlightWork(t *testing.T) {
	ex := New(2)
	done := make(chan struct{})
	go func() {
		RunSync(context.Background(), ex, func() (int, error) {
			time.Sleep(30 * time.Millisecond)
			close(done)
			return 0, nil
		})
	}()
	time.Sleep(5 * time.Millisecond)
	ex.Shutdown()
	select {
	case <-done:
	default:
		t.Fatal("Shutdown returned before in-flight work drained")
	}
}

func TestRunSyncRejectsAfterShutdown(t *testing.T) {
	ex := New(2)
	ex.Shutdown()
	_, err := RunSync(context.Background(), ex, func() (int, error) { return 1, nil })
	assert.Error(t, err)
}
