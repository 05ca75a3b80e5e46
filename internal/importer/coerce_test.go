package importer

import (
	"testing"
	"time"
)

func TestLooseNumber(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name  string
		input string
		want  *float64
	}{
		{"plain integer", "42", f(42)},
		{"decimal", "3.5", f(3.5)},
		{"currency dollar", "$1,234.50", f(1234.5)},
		{"currency euro", "€99", f(99)},
		{"currency pound", "£12.25", f(12.25)},
		{"accounting negative", "(250)", f(-250)},
		{"scientific", "1.5e3", f(1500)},
		{"leading plus", "+7", f(7)},
		{"whitespace", "  8  ", f(8)},
		{"empty", "", nil},
		{"letters", "abc", nil},
		{"mixed", "12abc", nil},
		{"double dot", "1.2.3", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := looseNumber(tt.input)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("looseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("looseNumber(%q) = %v, want %v", tt.input, *got, *tt.want)
			}
		})
	}
}

func TestLooseBool(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"Yes", true},
		{" true ", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"", false},
		{"anything", false},
	}

	for _, tt := range tests {
		if got := looseBool(tt.input); got != tt.want {
			t.Errorf("looseBool(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLooseInt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *int
	}{
		{"positive", "3", intPtr(3)},
		{"zero", "0", intPtr(0)},
		{"negative rejected", "-1", nil},
		{"decimal rejected", "1.5", nil},
		{"empty", "", nil},
		{"letters", "x", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := looseInt(tt.input)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("looseInt(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("looseInt(%q) = %d, want %d", tt.input, *got, *tt.want)
			}
		})
	}
}

func intPtr(n int) *int { return &n }

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"iso date", "2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"us slash", "3/15/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"written month", "Jan 2, 2024", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"compact", "20240315", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"datetime", "2024-03-15 10:30:00", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "not a date", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("parseDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate_TwoDigitYearPivot(t *testing.T) {
	// Years past the pivot shift back a century.
	got, ok := parseDate("1/2/99")
	if !ok {
		t.Fatal("parseDate(1/2/99) failed")
	}
	if got.Year() != 1999 {
		t.Errorf("year = %d, want 1999", got.Year())
	}

	got, ok = parseDate("1/2/10")
	if !ok {
		t.Fatal("parseDate(1/2/10) failed")
	}
	if got.Year() != 2010 {
		t.Errorf("year = %d, want 2010", got.Year())
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "a,b,c", []string{"a", "b", "c"}},
		{"trims tokens", " a , b ", []string{"a", "b"}},
		{"drops empties", "a,,b,", []string{"a", "b"}},
		{"empty input", "", nil},
		{"only separators", ",,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitList(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("splitList(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitList(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}
