package uptime

import "testing"

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		seconds uint64
		want    string
	}{
		{0, "0 minutes"},
		{59, "0 minutes"},
		{60, "1 minutes"},
		{3599, "59 minutes"},
		{3600, "1:00 hours"},
		{3660, "1:01 hours"},
		{86399, "23:59 hours"},
		{86400, "1 days"},
		{259200, "3 days"},
	}
	for _, tt := range tests {
		if got := formatUptime(tt.seconds); got != tt.want {
			t.Errorf("formatUptime(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
