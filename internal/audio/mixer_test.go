package audio

import (
	"math"
	"testing"
)

func TestMix_TwoStreams(t *testing.T) {
	mixed := Mix([]int16{1000, 2000, 3000}, []int16{500, 1000, 1500})
	want := []int16{1500, 3000, 4500}
	if len(mixed) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(mixed))
	}
	for i := range want {
		if mixed[i] != want[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, want[i], mixed[i])
		}
	}
}

func TestMix_ClampsToMax(t *testing.T) {
	mixed := Mix([]int16{math.MaxInt16}, []int16{1000})
	if mixed[0] != math.MaxInt16 {
		t.Fatalf("expected clamp to %d, got %d", math.MaxInt16, mixed[0])
	}
}

func TestMix_ClampsToMin(t *testing.T) {
	mixed := Mix([]int16{math.MinInt16}, []int16{-1000})
	if mixed[0] != math.MinInt16 {
		t.Fatalf("expected clamp to %d, got %d", math.MinInt16, mixed[0])
	}
}

func TestMix_ZeroPadsShorter(t *testing.T) {
	mixed := Mix([]int16{1, 2, 3}, []int16{10})
	want := []int16{11, 2, 3}
	for i := range want {
		if mixed[i] != want[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, want[i], mixed[i])
		}
	}

	// Symmetric: shorter first argument.
	mixed = Mix([]int16{10}, []int16{1, 2, 3})
	for i := range want {
		if mixed[i] != want[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, want[i], mixed[i])
		}
	}
}

func TestMix_Empty(t *testing.T) {
	if got := Mix(nil, nil); len(got) != 0 {
		t.Fatalf("expected empty output, got %d samples", len(got))
	}
}

func TestLevel(t *testing.T) {
	if got := Level(nil); got != 0 {
		t.Fatalf("expected 0 for empty input, got %f", got)
	}
	full := []int16{math.MaxInt16, math.MaxInt16}
	if got := Level(full); got < 99.9 || got > 100 {
		t.Fatalf("expected full-scale level near 100, got %f", got)
	}
	if got := Level([]int16{0, 0, 0}); got != 0 {
		t.Fatalf("expected silence level 0, got %f", got)
	}
}
