package cdp

import "testing"

func TestTabIDMonotonicAndStable(t *testing.T) {
	r := NewIDRegistry()

	a := r.TabID("T-A")
	b := r.TabID("T-B")
	if a != 0 || b != 1 {
		t.Fatalf("TabID() = %d, %d; want 0, 1", a, b)
	}
	if got := r.TabID("T-A"); got != a {
		t.Fatalf("TabID(T-A) = %d on second call; want %d", got, a)
	}
}

func TestFrameIDTopFrameIsZero(t *testing.T) {
	r := NewIDRegistry()
	r.TabID("T-A")
	r.SetMainFrame("T-A", "F-MAIN")

	if got := r.FrameID("T-A", "F-MAIN"); got != 0 {
		t.Fatalf("FrameID(main) = %d; want 0", got)
	}
	sub1 := r.FrameID("T-A", "F-SUB1")
	sub2 := r.FrameID("T-A", "F-SUB2")
	if sub1 != 1 || sub2 != 2 {
		t.Fatalf("FrameID(subframes) = %d, %d; want 1, 2", sub1, sub2)
	}
	if got := r.FrameID("T-A", "F-SUB1"); got != sub1 {
		t.Fatalf("FrameID(F-SUB1) = %d on second call; want %d", got, sub1)
	}
}

func TestFrameIDUnknownMainFrameAssumedTop(t *testing.T) {
	r := NewIDRegistry()
	r.TabID("T-A")

	if got := r.FrameID("T-A", "F-FIRST"); got != 0 {
		t.Fatalf("FrameID(first seen) = %d; want 0", got)
	}
	if got := r.FrameID("T-A", "F-OTHER"); got == 0 {
		t.Fatalf("FrameID(second frame) = 0; want subframe id")
	}
}

func TestReassignIssuesFreshID(t *testing.T) {
	r := NewIDRegistry()
	old := r.TabID("T-A")
	r.SetMainFrame("T-A", "F-MAIN")

	newID, oldID, ok := r.Reassign("T-A")
	if !ok {
		t.Fatalf("Reassign() ok = false; want true")
	}
	if oldID != old {
		t.Fatalf("Reassign() oldID = %d; want %d", oldID, old)
	}
	if newID == old {
		t.Fatalf("Reassign() newID = oldID = %d; want fresh id", newID)
	}
	if got := r.TabID("T-A"); got != newID {
		t.Fatalf("TabID after Reassign = %d; want %d", got, newID)
	}

	if _, _, ok := r.Reassign("T-UNKNOWN"); ok {
		t.Fatalf("Reassign(unknown) ok = true; want false")
	}
}

func TestDropForgetsTarget(t *testing.T) {
	r := NewIDRegistry()
	r.TabID("T-A")
	r.Drop("T-A")

	if _, ok := r.Lookup("T-A"); ok {
		t.Fatalf("Lookup after Drop ok = true; want false")
	}
}
