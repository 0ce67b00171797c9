package utils

import (
	"testing"
	"time"
)

func TestParseSECDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2023-11-03", time.Date(2023, 11, 3, 0, 0, 0, 0, time.UTC)},
		{"11/03/2023", time.Date(2023, 11, 3, 0, 0, 0, 0, time.UTC)},
		{"2023-11-03T16:30:00-04:00", time.Date(2023, 11, 3, 20, 30, 0, 0, time.UTC)},
		{"garbage", time.Time{}},
		{"", time.Time{}},
	}
	for _, tt := range tests {
		got := ParseSECDate(tt.input)
		if !got.Equal(tt.want) {
			t.Errorf("ParseSECDate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestYearOf(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"2023-09-30", 2023},
		{"1999", 1999},
		{"99", 0},
		{"abcd-01-01", 0},
	}
	for _, tt := range tests {
		if got := YearOf(tt.input); got != tt.want {
			t.Errorf("YearOf(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Time{}); got != "" {
		t.Errorf("FormatDate(zero) = %q, want empty", got)
	}
	d := time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC)
	if got := FormatDate(d); got != "2024-02-29" {
		t.Errorf("FormatDate = %q", got)
	}
}

func TestNowUTC(t *testing.T) {
	if NowUTC().Location() != time.UTC {
		t.Error("NowUTC() should be in UTC")
	}
}
