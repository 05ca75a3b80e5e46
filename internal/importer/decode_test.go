package importer

import (
	"testing"
)

func TestDecode_HeaderNamesColumns(t *testing.T) {
	rows, err := Decode("Name,Priority\nLogin,high\nLogout,low\n", ',', true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Values["Name"] != "Login" || rows[0].Values["Priority"] != "high" {
		t.Errorf("row 0 = %v", rows[0].Values)
	}
	if rows[1].Index != 1 {
		t.Errorf("row 1 index = %d, want 1", rows[1].Index)
	}
}

func TestDecode_NoHeaderUsesOrdinals(t *testing.T) {
	rows, err := Decode("Login,high\n", ',', false)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Values["1"] != "Login" || rows[0].Values["2"] != "high" {
		t.Errorf("row = %v, want ordinal column names", rows[0].Values)
	}
}

func TestDecode_TabDelimiter(t *testing.T) {
	rows, err := Decode("Name\tPriority\nLogin\thigh\n", '\t', true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rows[0].Values["Priority"] != "high" {
		t.Errorf("row = %v", rows[0].Values)
	}
}

func TestDecode_DropsEmptyRecords(t *testing.T) {
	rows, err := Decode("Name\nA\n\n , \nB\n", ',', true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (empty records dropped)", len(rows))
	}
	// Indexes stay contiguous after dropping.
	if rows[1].Index != 1 {
		t.Errorf("second row index = %d, want 1", rows[1].Index)
	}
}

func TestDecode_StripsBOM(t *testing.T) {
	rows, err := Decode("\xef\xbb\xbfName\nA\n", ',', true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rows[0].Values["Name"] != "A" {
		t.Errorf("BOM leaked into header: %v", rows[0].Values)
	}
}

func TestDecode_RaggedRows(t *testing.T) {
	rows, err := Decode("Name,Priority\nA\nB,low,extra\n", ',', true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if _, ok := rows[0].Values["Priority"]; ok {
		t.Error("short row grew a Priority cell")
	}
	// Extra cells beyond the header get ordinal names.
	if rows[1].Values["3"] != "extra" {
		t.Errorf("row 1 = %v, want extra cell under ordinal 3", rows[1].Values)
	}
}

func TestDecode_InvalidUTF8Replaced(t *testing.T) {
	rows, err := Decode("Name\nA\xffB\n", ',', true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rows[0].Values["Name"] != "A�B" {
		t.Errorf("value = %q, want replacement rune", rows[0].Values["Name"])
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "value", "value"},
		{"whitespace", "  value  ", "value"},
		{"excel formula quote", `="00123"`, "00123"},
		{"excel formula bare", "=SUM", "SUM"},
		{"surrounding quotes", `"quoted"`, "quoted"},
		{"single quotes", "'quoted'", "quoted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanCell(tt.input); got != tt.want {
				t.Errorf("cleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
