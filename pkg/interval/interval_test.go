package interval

import "testing"

func TestAddRangeMergesOverlap(t *testing.T) {
	iv := New(0)
	iv.AddRange(0, 5)
	iv.AddRange(3, 8)
	if len(iv.Ranges) != 1 || iv.Ranges[0] != (LiveRange{0, 8}) {
		t.Errorf("Ranges = %v, want [{0 8}]", iv.Ranges)
	}
}

func TestAddRangeMergesAdjacent(t *testing.T) {
	iv := New(0)
	iv.AddRange(0, 3)
	iv.AddRange(4, 6)
	if len(iv.Ranges) != 1 || iv.Ranges[0] != (LiveRange{0, 6}) {
		t.Errorf("Ranges = %v, want [{0 6}] (adjacent ranges should merge)", iv.Ranges)
	}
}

func TestAddRangeKeepsDisjoint(t *testing.T) {
	iv := New(0)
	iv.AddRange(0, 2)
	iv.AddRange(10, 12)
	if len(iv.Ranges) != 2 {
		t.Fatalf("Ranges = %v, want 2 disjoint ranges", iv.Ranges)
	}
	if iv.Ranges[0].Start > iv.Ranges[1].Start {
		t.Errorf("Ranges not sorted: %v", iv.Ranges)
	}
}

func TestAddRangeOutOfOrderInsertion(t *testing.T) {
	iv := New(0)
	iv.AddRange(20, 22)
	iv.AddRange(0, 2)
	iv.AddRange(10, 12)
	want := []LiveRange{{0, 2}, {10, 12}, {20, 22}}
	if len(iv.Ranges) != len(want) {
		t.Fatalf("Ranges = %v, want %v", iv.Ranges, want)
	}
	for i := range want {
		if iv.Ranges[i] != want[i] {
			t.Errorf("Ranges[%d] = %v, want %v", i, iv.Ranges[i], want[i])
		}
	}
}

func TestContainsStartEndEmpty(t *testing.T) {
	iv := New(0)
	if !iv.Empty() {
		t.Error("fresh interval should be Empty")
	}
	if iv.Start() <= 0 {
		t.Error("Start() of empty interval should be a large sentinel")
	}
	if iv.End() != -1 {
		t.Errorf("End() of empty interval = %d, want -1", iv.End())
	}

	iv.AddRange(4, 10)
	if iv.Empty() {
		t.Error("interval with a range should not be Empty")
	}
	if !iv.Contains(4) || !iv.Contains(10) || !iv.Contains(7) {
		t.Error("Contains should be true within [4, 10]")
	}
	if iv.Contains(3) || iv.Contains(11) {
		t.Error("Contains should be false outside [4, 10]")
	}
	if iv.Start() != 4 {
		t.Errorf("Start() = %d, want 4", iv.Start())
	}
	if iv.End() != 10 {
		t.Errorf("End() = %d, want 10", iv.End())
	}
}
