package scheduler

import (
	"testing"
	"time"
)

func TestPackingS5(t *testing.T) {
	s := New(200)
	for i := uint32(3); i < 10; i++ {
		if err := s.Insert(i, float64(i)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		if got := s.Count(i); got != int(i) {
			t.Fatalf("count(%d) = %d, want %d", i, got, i)
		}
	}
}

func TestMessageIntervalProgramsScheduleS6(t *testing.T) {
	// interval_us=33333 on a 200-slot, 1s schedule is ~30Hz.
	s := New(200)
	hz := 1_000_000.0 / 33333.0
	if err := s.Insert(30, hz); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := s.Count(30); got != 30 {
		t.Fatalf("count(30) = %d, want 30", got)
	}
}

func TestInsertZeroFrequencyDeletes(t *testing.T) {
	s := New(50)
	if err := s.Insert(5, 10); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if s.Count(5) == 0 {
		t.Fatalf("expected task present before delete")
	}
	if err := s.Insert(5, 0); err != nil {
		t.Fatalf("insert 0 hz: %v", err)
	}
	if got := s.Count(5); got != 0 {
		t.Fatalf("count(5) = %d, want 0 after zero-frequency insert", got)
	}
}

func TestInsertConflictLeavesScheduleUnchanged(t *testing.T) {
	s := New(4)
	if err := s.Insert(1, 4); err != nil { // fills every slot
		t.Fatalf("insert: %v", err)
	}
	before := s.Display()
	if err := s.Insert(2, 4); err != ErrConflict {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	after := s.Display()
	if before != after {
		t.Fatalf("schedule mutated on failed insert:\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestDeleteThenReinsert(t *testing.T) {
	s := New(20)
	if err := s.Insert(7, 5); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s.Delete(7)
	if got := s.Count(7); got != 0 {
		t.Fatalf("count(7) = %d after delete, want 0", got)
	}
	if err := s.Insert(7, 5); err != nil {
		t.Fatalf("reinsert after delete: %v", err)
	}
}

func TestNextEmitsAtMostOnePerFrame(t *testing.T) {
	start := time.Now().Add(-time.Second)
	s := NewAt(10, start)
	if err := s.Insert(1, 10); err != nil { // one per slot: every frame occupied
		t.Fatalf("insert: %v", err)
	}
	task, ok := s.Next()
	if !ok || task != 1 {
		t.Fatalf("Next() = %v, %v; want 1, true", task, ok)
	}
}

func TestNextReturnsFalseOnEmptySchedule(t *testing.T) {
	s := NewAt(10, time.Now().Add(-time.Second))
	if _, ok := s.Next(); ok {
		t.Fatalf("expected no task due on an empty schedule")
	}
}
