package nn

import (
	"math"
	"testing"
)

func TestQuadratureClockFullCycle(t *testing.T) {
	const freq = 64
	c := newQuadratureClock(freq)
	period := 4 * len(c.table)
	if period != freq {
		t.Fatalf("unexpected period: got=%d want=%d", period, freq)
	}

	// The first reading happens after one advance, matching the tick path.
	for i := 1; i <= 2*period; i++ {
		c.advance()
		phase := 2 * math.Pi * float64(i%period) / float64(period)
		if got, want := c.sine(), math.Sin(phase); math.Abs(got-want) > 1e-9 {
			t.Fatalf("sine at step %d: got=%f want=%f", i, got, want)
		}
		if got, want := c.cosine(), math.Cos(phase); math.Abs(got-want) > 1e-9 {
			t.Fatalf("cosine at step %d: got=%f want=%f", i, got, want)
		}
	}
}

func TestQuadratureClockQuadrantBoundary(t *testing.T) {
	c := newQuadratureClock(16)
	for i := 0; i < 4; i++ {
		c.advance()
	}
	if c.quadrant != 1 || c.index != 0 {
		t.Fatalf("unexpected cursor: quadrant=%d index=%d", c.quadrant, c.index)
	}
	if c.sine() != 1 {
		t.Fatalf("expected peak at quadrant boundary, got %f", c.sine())
	}
	for i := 0; i < 8; i++ {
		c.advance()
	}
	if c.quadrant != 3 || c.sine() != -1 {
		t.Fatalf("expected trough at quadrant 3 boundary, got quadrant=%d sine=%f", c.quadrant, c.sine())
	}
	c.reset()
	if c.sine() != 0 || c.cosine() != 1 {
		t.Fatalf("reset did not rewind: sine=%f cosine=%f", c.sine(), c.cosine())
	}
}

func TestQuadratureClockUnavailable(t *testing.T) {
	c := newQuadratureClock(3)
	c.advance()
	if len(c.table) != 0 || c.sine() != 0 || c.cosine() != 0 {
		t.Fatal("expected an empty clock for frequencies below 4")
	}
}
