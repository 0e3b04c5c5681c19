package mathx

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 10, 1); got != 5 {
		t.Fatalf("swapped bounds: got %d", got)
	}
	if got := Clamp(uint32(0), 10, 100); got != 10 {
		t.Fatalf("low: got %d", got)
	}
	if got := Clamp(500, 10, 100); got != 100 {
		t.Fatalf("high: got %d", got)
	}
}

func TestFloorDiv(t *testing.T) {
	cases := []struct{ a, b, want int64 }{
		{7, 4, 1}, {8, 4, 2}, {-1, 4, -1}, {-4, 4, -1}, {-5, 4, -2}, {0, 4, 0},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.want {
			t.Errorf("FloorDiv(%d,%d)=%d want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestWrapDelta16(t *testing.T) {
	cases := []struct {
		prev, cur uint16
		want      int64
	}{
		{0, 0, 0},
		{10, 15, 5},
		{15, 10, -5},
		{0xFFFF, 0, 1},
		{0, 0xFFFF, -1},
		{0xFFF0, 0x0010, 0x20},
		{0, 0x7FFF, 0x7FFF},
		{0, 0x8000, -0x8000},
	}
	for _, c := range cases {
		if got := WrapDelta(c.prev, c.cur); got != c.want {
			t.Errorf("WrapDelta(%#x,%#x)=%d want %d", c.prev, c.cur, got, c.want)
		}
	}
}

func TestWrapDelta32(t *testing.T) {
	if got := WrapDelta(uint32(0xFFFFFFFF), 1); got != 2 {
		t.Fatalf("forward wrap: got %d", got)
	}
	if got := WrapDelta(uint32(1), 0xFFFFFFFF); got != -2 {
		t.Fatalf("reverse wrap: got %d", got)
	}
	if FullScale[uint32]() != 0xFFFFFFFF || FullScale[uint16]() != 0xFFFF {
		t.Fatal("FullScale")
	}
}
