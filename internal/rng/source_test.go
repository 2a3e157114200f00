package rng

import "testing"

func TestSequenceWrapsAround(t *testing.T) {
	s := NewSequence(0.1, 0.2, 0.3)
	want := []float64{0.1, 0.2, 0.3, 0.1, 0.2}
	for i, w := range want {
		if got := s.Float64(); got != w {
			t.Fatalf("draw %d: got %v, want %v", i, got, w)
		}
	}
	if s.Drawn() != len(want) {
		t.Errorf("Drawn() = %d, want %d", s.Drawn(), len(want))
	}
}

func TestSequenceClampsOutOfRange(t *testing.T) {
	s := NewSequence(-0.5, 1, 7)
	if v := s.Float64(); v != 0 {
		t.Errorf("negative value: got %v, want 0", v)
	}
	for i := 0; i < 2; i++ {
		if v := s.Float64(); v >= 1 || v < 0.999 {
			t.Errorf("value >= 1 should clamp just below 1, got %v", v)
		}
	}
}

func TestUniform(t *testing.T) {
	tests := []struct {
		draw, min, max, want float64
	}{
		{0, 300, 700, 300},
		{0.5, 300, 700, 500},
		{0.25, 0.1, 0.7, 0.25},
		{0.5, 1, 1, 1},
	}
	for _, tt := range tests {
		got := Uniform(NewSequence(tt.draw), tt.min, tt.max)
		if diff := got - tt.want; diff > 1e-12 || diff < -1e-12 {
			t.Errorf("Uniform(%v, %v, %v) = %v, want %v", tt.draw, tt.min, tt.max, got, tt.want)
		}
	}
}

func TestPick(t *testing.T) {
	tests := []struct {
		draw float64
		n    int
		want int
	}{
		{0, 24, 0},
		{0.5, 24, 12},
		{0.9999999, 24, 23},
		{1, 10, 9},
		{0.3, 0, 0},
	}
	for _, tt := range tests {
		if got := Pick(NewSequence(tt.draw), tt.n); got != tt.want {
			t.Errorf("Pick(%v, %d) = %d, want %d", tt.draw, tt.n, got, tt.want)
		}
	}
}

func TestSeededIsReproducible(t *testing.T) {
	a, b := NewSeeded(42), NewSeeded(42)
	for i := 0; i < 100; i++ {
		x, y := a.Float64(), b.Float64()
		if x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
		if x < 0 || x >= 1 {
			t.Fatalf("draw %d out of range: %v", i, x)
		}
	}
}

func TestDefaultInRange(t *testing.T) {
	src := Default()
	for i := 0; i < 1000; i++ {
		if v := src.Float64(); v < 0 || v >= 1 {
			t.Fatalf("default source out of range: %v", v)
		}
	}
}
