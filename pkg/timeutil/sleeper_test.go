package timeutil

import (
	"context"
	"testing"
	"time"
)

func TestSleeperSleepContextCancellation(t *testing.T) {
	sleeper := NewRealSleeper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	sleeper.SleepContext(ctx, time.Minute)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("SleepContext with cancelled context took %v", elapsed)
	}
}

func TestSleeperSleepContextNonPositive(t *testing.T) {
	sleeper := NewRealSleeper()
	start := time.Now()
	sleeper.SleepContext(context.Background(), -time.Second)
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("SleepContext with negative duration took %v", elapsed)
	}
}

func TestSleeperSleepContextElapses(t *testing.T) {
	sleeper := NewRealSleeper()
	start := time.Now()
	sleeper.SleepContext(context.Background(), 20*time.Millisecond)
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("SleepContext returned after only %v", elapsed)
	}
}
