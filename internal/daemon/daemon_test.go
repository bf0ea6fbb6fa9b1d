package daemon

import (
	"testing"
	"time"
)

func TestCalcBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{7, 64 * time.Second},
		{8, 2 * time.Minute},
		{20, 2 * time.Minute},
	}
	for _, tt := range tests {
		if got := calcBackoff(tt.attempt); got != tt.want {
			t.Errorf("calcBackoff(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}
