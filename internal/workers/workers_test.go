package workers

import (
	"runtime"
	"testing"
)

// TestCount tests worker count calculation with multipliers and limits.
func TestCount(t *testing.T) {
	available := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		check      func(t *testing.T, got int)
	}{
		{
			name:       "cpu bound at least one",
			multiplier: 1.0,
			limit:      0,
			check: func(t *testing.T, got int) {
				if got < 1 {
					t.Errorf("Count returned %d, want >= 1", got)
				}
				if got != available {
					t.Errorf("Count(1.0, 0) = %d, want %d", got, available)
				}
			},
		},
		{
			name:       "io bound doubles",
			multiplier: 2.0,
			limit:      0,
			check: func(t *testing.T, got int) {
				if got != available*2 {
					t.Errorf("Count(2.0, 0) = %d, want %d", got, available*2)
				}
			},
		},
		{
			name:       "limit caps result",
			multiplier: 2.0,
			limit:      1,
			check: func(t *testing.T, got int) {
				if got != 1 {
					t.Errorf("Count(2.0, 1) = %d, want 1", got)
				}
			},
		},
		{
			name:       "tiny multiplier floors to one",
			multiplier: 0.01,
			limit:      0,
			check: func(t *testing.T, got int) {
				if got != 1 {
					t.Errorf("Count(0.01, 0) = %d, want 1", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Count(tt.multiplier, tt.limit))
		})
	}
}

// TestCountOverride tests the THUMBNAIL_WORKERS environment override.
func TestCountOverride(t *testing.T) {
	t.Setenv("THUMBNAIL_WORKERS", "3")

	if got := Count(1.0, 0); got != 3 {
		t.Errorf("Count with override = %d, want 3", got)
	}
	if got := Count(1.0, 2); got != 2 {
		t.Errorf("Count with override and limit = %d, want 2", got)
	}
}

// TestCountInvalidOverride tests that bad override values are ignored.
func TestCountInvalidOverride(t *testing.T) {
	for _, bad := range []string{"zero", "-1", "0", ""} {
		t.Setenv("THUMBNAIL_WORKERS", bad)
		if got := Count(1.0, 0); got < 1 {
			t.Errorf("Count with override %q = %d, want >= 1", bad, got)
		}
	}
}
