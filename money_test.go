package finapp

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneySignedString(t *testing.T) {
	if got := M(decimal.Zero).SignedString(); got != "-" {
		t.Errorf("zero = %q, want -", got)
	}
	pos := M(decimal.NewFromInt(1000)).SignedString()
	if !strings.HasPrefix(pos, "+") {
		t.Errorf("positive = %q, want + prefix", pos)
	}
	neg := M(decimal.NewFromInt(-1000)).SignedString()
	if strings.HasPrefix(neg, "+") {
		t.Errorf("negative = %q, must not have + prefix", neg)
	}
}

func TestMoneyString(t *testing.T) {
	got := M(decimal.RequireFromString("1234.56")).String()
	if !strings.Contains(got, "1,234.56") {
		t.Errorf("M(1234.56) = %q, want grouped digits", got)
	}
}
