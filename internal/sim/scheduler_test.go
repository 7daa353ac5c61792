package sim

import "testing"

func TestSchedulerOrdersByTickThenSequence(t *testing.T) {
	s := NewScheduler()
	var order []string
	exec := func(tick Tick, owner UnitID, a Action) {
		order = append(order, a.(testAction).name)
	}

	s.Schedule(0, 5, 1, true, testAction{"c"})
	s.Schedule(0, 2, 1, true, testAction{"a"})
	s.Schedule(0, 2, 1, true, testAction{"b"})

	s.drainDue(10, exec)

	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

type testAction struct{ name string }

func (a testAction) OwnerUnit() UnitID { return 1 }

func TestScheduleInThePastIsFatal(t *testing.T) {
	s := NewScheduler()
	_, err := s.Schedule(10, 5, 1, true, testAction{"x"})
	if err == nil {
		t.Fatal("expected InvalidSchedule error for a tick before now")
	}
	se := err.(*Error)
	if se.Kind != ErrInvalidSchedule || !se.Fatal() {
		t.Errorf("got %v, want fatal InvalidSchedule", se)
	}
}

func TestCancelOwnerTombstonesOnlyThatOwner(t *testing.T) {
	s := NewScheduler()
	s.Schedule(0, 5, 1, true, testAction{"owned-by-1"})
	s.Schedule(0, 5, 2, true, testAction{"owned-by-2"})

	s.CancelOwner(1)

	var fired []string
	s.drainDue(5, func(tick Tick, owner UnitID, a Action) {
		fired = append(fired, a.(testAction).name)
	})
	if len(fired) != 1 || fired[0] != "owned-by-2" {
		t.Errorf("got %v, want only owned-by-2 to fire", fired)
	}
}

func TestDoubleCancelIsNoOp(t *testing.T) {
	s := NewScheduler()
	h, _ := s.Schedule(0, 5, 1, true, testAction{"x"})
	s.Cancel(h)
	s.Cancel(h) // must not panic
	fired := false
	s.drainDue(5, func(tick Tick, owner UnitID, a Action) { fired = true })
	if fired {
		t.Error("cancelled event should not fire")
	}
}

func TestAttackIntervalEnforcesFiveTickMinimum(t *testing.T) {
	s := NewScheduler()
	s.MarkAttackScheduled(1, 10)

	if err := s.CheckAttackInterval(1, 14); err == nil {
		t.Error("scheduling within 5 ticks of the previous attack should be rejected")
	}
	if err := s.CheckAttackInterval(1, 15); err != nil {
		t.Errorf("scheduling exactly 5 ticks later should be allowed, got %v", err)
	}
}

func TestAttackIntervalSentinelAllowsImmediateFirstAttack(t *testing.T) {
	s := NewScheduler()
	// No prior attack recorded: NoSchedule sentinel, so no interval check applies.
	if err := s.CheckAttackInterval(1, 0); err != nil {
		t.Errorf("first attack should never be rejected by the interval check, got %v", err)
	}
}

func TestResetAttackSentinelClearsTheInterval(t *testing.T) {
	s := NewScheduler()
	s.MarkAttackScheduled(1, 100)
	s.ResetAttackSentinel(1)
	if got := s.LastAttackScheduledTick(1); got != NoSchedule {
		t.Errorf("LastAttackScheduledTick after reset = %d, want %d", got, NoSchedule)
	}
	// Immediately re-attacking must now be allowed, the invariant-8 regression.
	if err := s.CheckAttackInterval(1, 101); err != nil {
		t.Errorf("attack right after a sentinel reset should be allowed, got %v", err)
	}
}

func TestPendingReportsLiveOwnerEvents(t *testing.T) {
	s := NewScheduler()
	if s.Pending(1) {
		t.Error("empty scheduler should report no pending events")
	}
	s.Schedule(0, 5, 1, true, testAction{"x"})
	if !s.Pending(1) {
		t.Error("scheduled event should be reported pending")
	}
}

func TestFiringDelayZeroFiresSimultaneousShotsOrderedBySeq(t *testing.T) {
	// Boundary behavior: firing_delay=0 fires a 3-shot burst all at the
	// same tick, with seq separating them.
	s := NewScheduler()
	for i := 1; i <= 3; i++ {
		s.Schedule(0, 0, 1, true, testAction{name: string(rune('0' + i))})
	}
	var fired []string
	s.drainDue(0, func(tick Tick, owner UnitID, a Action) {
		if tick != 0 {
			t.Errorf("all three shots should fire at tick 0, got %d", tick)
		}
		fired = append(fired, a.(testAction).name)
	})
	if len(fired) != 3 {
		t.Fatalf("expected 3 simultaneous shots, got %d", len(fired))
	}
	if fired[0] != "1" || fired[1] != "2" || fired[2] != "3" {
		t.Errorf("shots out of seq order: %v", fired)
	}
}
