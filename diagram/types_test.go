package diagram

import "testing"

func TestBounds(t *testing.T) {
	b := BoundsAround(Point{10, 10}, 4, 2)
	if b.Width() != 4 || b.Height() != 2 {
		t.Errorf("size = %vx%v", b.Width(), b.Height())
	}
	if b.Center() != (Point{10, 10}) {
		t.Errorf("center = %v", b.Center())
	}
	tests := []struct {
		p    Point
		want bool
	}{
		{Point{10, 10}, true},
		{Point{8, 9}, true},
		{Point{12, 10}, false},
		{Point{7.9, 10}, false},
	}
	for _, tt := range tests {
		if got := b.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v", tt.p, got)
		}
	}
	moved := b.Translate(5, -5)
	if moved.Center() != (Point{15, 5}) {
		t.Errorf("translated center = %v", moved.Center())
	}
	u := b.Union(moved)
	if u.Min != (Point{8, 4}) || u.Max != (Point{17, 11}) {
		t.Errorf("union = %+v", u)
	}
}

func TestSnapAndDistance(t *testing.T) {
	if got := Snap(Point{12, 18}, 5); got != (Point{10, 20}) {
		t.Errorf("Snap = %v", got)
	}
	if got := Distance(Point{0, 0}, Point{6, 8}); got != 10 {
		t.Errorf("Distance = %v", got)
	}
	dx, dy := Point{5, 7}.Sub(Point{2, 3})
	if dx != 3 || dy != 4 {
		t.Errorf("Sub = %v, %v", dx, dy)
	}
}
