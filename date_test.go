package finapp

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want Date
	}{
		{"2025-06-01", NewDate(2025, time.June, 1)},
		{"01-06-2025", NewDate(2025, time.June, 1)}, // day-first bank format
		{"2025-6-1", NewDate(2025, time.June, 1)},
		{"01-Jun-2025", NewDate(2025, time.June, 1)},
		{"2025/06/01", NewDate(2025, time.June, 1)},
		{" 2025-06-01 ", NewDate(2025, time.June, 1)},
	}
	for _, tc := range tests {
		got, err := ParseDate(tc.in)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}

	if _, err := ParseDate("not a date"); err == nil {
		t.Error("ParseDate should reject garbage")
	}
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2025, time.January, 31)

	if got := d.Add(1); got != NewDate(2025, time.February, 1) {
		t.Errorf("Add(1) = %s", got)
	}
	if got := d.AddMonth(1); got != NewDate(2025, time.March, 3) {
		// Jan 31 + 1 month normalizes through Feb 31
		t.Errorf("AddMonth(1) = %s", got)
	}
	if got := d.AddYear(1); got != NewDate(2026, time.January, 31) {
		t.Errorf("AddYear(1) = %s", got)
	}

	start := NewDate(2025, time.January, 1)
	if got := NewDate(2026, time.January, 1).DaysSince(start); got != 365 {
		t.Errorf("DaysSince = %d, want 365", got)
	}
}

func TestDateOrdering(t *testing.T) {
	a := NewDate(2025, time.March, 1)
	b := NewDate(2025, time.March, 2)
	if !a.Before(b) || b.Before(a) {
		t.Error("Before is wrong")
	}
	if !b.After(a) || a.After(b) {
		t.Error("After is wrong")
	}
	if (Date{}).IsZero() == false {
		t.Error("zero date should report IsZero")
	}
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2025, time.June, 1, 23, 59, 59, 0, time.Local)
	if got := DateOf(ts); got != NewDate(2025, time.June, 1) {
		t.Errorf("DateOf = %s", got)
	}
}
