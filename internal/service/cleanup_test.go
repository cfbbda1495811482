package service

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCleanupScheduler_FiresAfterDelay(t *testing.T) {
	s := NewCleanupScheduler()
	defer s.Stop()

	var fired atomic.Int32
	s.Schedule("r1", 30*time.Millisecond, func() { fired.Add(1) })

	if !s.Pending("r1") {
		t.Fatal("timer must be pending right after Schedule")
	}
	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("want exactly one fire, got %d", got)
	}
	if s.Pending("r1") {
		t.Fatal("fired timer must leave the map")
	}
}

func TestCleanupScheduler_CancelPreventsFire(t *testing.T) {
	s := NewCleanupScheduler()
	defer s.Stop()

	var fired atomic.Int32
	s.Schedule("r1", 50*time.Millisecond, func() { fired.Add(1) })
	s.Cancel("r1")

	time.Sleep(120 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("cancelled timer must not fire, got %d", got)
	}
}

func TestCleanupScheduler_CancelUnknownIsNoop(t *testing.T) {
	s := NewCleanupScheduler()
	defer s.Stop()

	s.Cancel("never-scheduled") // не должно паниковать и не ошибка
}

func TestCleanupScheduler_ScheduleReplacesPrevious(t *testing.T) {
	s := NewCleanupScheduler()
	defer s.Stop()

	var first, second atomic.Int32
	s.Schedule("r1", 40*time.Millisecond, func() { first.Add(1) })
	s.Schedule("r1", 40*time.Millisecond, func() { second.Add(1) })

	time.Sleep(120 * time.Millisecond)
	if first.Load() != 0 {
		t.Fatal("replaced timer must not fire")
	}
	if second.Load() != 1 {
		t.Fatalf("latest timer must fire once, got %d", second.Load())
	}
}

func TestCleanupScheduler_ScheduleAfterCancel(t *testing.T) {
	s := NewCleanupScheduler()
	defer s.Stop()

	var fired atomic.Int32
	s.Schedule("r1", 30*time.Millisecond, func() { fired.Add(1) })
	s.Cancel("r1")
	s.Schedule("r1", 30*time.Millisecond, func() { fired.Add(1) })

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("schedule after cancel must produce a fresh timer, fires=%d", got)
	}
}
