// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"testing"
	"time"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFakeNowStandsStill(t *testing.T) {
	c := Fake(epoch)
	if !c.Now().Equal(epoch) {
		t.Fatalf("Now = %v, want %v", c.Now(), epoch)
	}
	if !c.Now().Equal(c.Now()) {
		t.Error("fake time moved without Advance")
	}
}

func TestFakeAdvanceAndSince(t *testing.T) {
	c := Fake(epoch)
	start := c.Now()
	c.Advance(90 * time.Second)
	if got := c.Since(start); got != 90*time.Second {
		t.Errorf("Since = %v, want 90s", got)
	}
	c.Set(epoch.Add(time.Hour))
	if got := c.Since(start); got != time.Hour {
		t.Errorf("Since after Set = %v, want 1h", got)
	}
}

func TestFakeRejectsBackwardsTime(t *testing.T) {
	c := Fake(epoch)
	defer func() {
		if recover() == nil {
			t.Error("Set into the past did not panic")
		}
	}()
	c.Set(epoch.Add(-time.Second))
}

func TestFakeConcurrentAdvance(t *testing.T) {
	c := Fake(epoch)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(time.Millisecond)
			_ = c.Now()
		}()
	}
	wg.Wait()
	if got := c.Since(epoch); got != 50*time.Millisecond {
		t.Errorf("Since = %v, want 50ms", got)
	}
}

func TestRealClockMovesForward(t *testing.T) {
	c := Real()
	first := c.Now()
	if c.Since(first) < 0 {
		t.Error("real clock ran backwards")
	}
}
