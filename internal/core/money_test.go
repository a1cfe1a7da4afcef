package core

import "testing"

func TestParseStatementAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1,000.00", 100000, true},
		{"-20.00", -2000, true},
		{"5,000.00", 500000, true},
		{"0.50", 50, true},
		{"123.45", 12345, true},
		{" -1,250.00 ", -125000, true},
		{"1000", 0, false},   // no decimal places
		{"1.5", 0, false},    // one decimal place
		{"1.234", 0, false},  // three decimal places
		{".50", 0, false},    // missing integer part
		{"abc.00", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseStatementAmount(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q: expected ok=%v, got %v", tc.in, tc.ok, ok)
		}
		if ok && got.Cents != tc.out {
			t.Fatalf("%q: expected %d cents, got %d", tc.in, tc.out, got.Cents)
		}
	}
}

func TestMoneyWhole(t *testing.T) {
	cases := []struct {
		cents int64
		want  int64
	}{
		{100000, 1000},
		{100049, 1000},
		{100050, 1001}, // half-up
		{-150, -2},
		{0, 0},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).Whole(); got != tc.want {
			t.Fatalf("Whole(%d) = %d, want %d", tc.cents, got, tc.want)
		}
	}
}

func TestFormatKES(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{100000, "KES 1,000"},
		{11500000, "KES 115,000"},
		{-3500, "-KES 35"},
		{123456, "KES 1,234.56"},
		{0, "KES 0"},
	}
	for _, tc := range cases {
		if got := FormatKES(Money{Cents: tc.cents}); got != tc.want {
			t.Fatalf("FormatKES(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}
