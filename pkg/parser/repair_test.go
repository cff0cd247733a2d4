package parser

import (
	"encoding/json"
	"testing"
)

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{
			name: "raw newline inside string",
			in:   "{\"event\": \"she said\nnothing\"}",
		},
		{
			name: "raw tab inside string",
			in:   "{\"event\": \"ledger\tentry\"}",
		},
		{
			name: "missing comma between members",
			in:   "{\"npc_id\": \"mara\"\n\"event\": \"left\"}",
		},
		{
			name: "trailing comma in object",
			in:   `{"npc_id": "mara", "event": "left",}`,
		},
		{
			name: "trailing comma in array",
			in:   `[{"npc_id": "mara", "event": "left"},]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if json.Valid([]byte(tt.in)) {
				t.Fatal("input is already valid, test proves nothing")
			}
			repaired := RepairJSON(tt.in)
			if !json.Valid([]byte(repaired)) {
				t.Errorf("RepairJSON(%q) = %q, still invalid", tt.in, repaired)
			}
		})
	}
}

func TestRepairJSON_PreservesEscapes(t *testing.T) {
	in := `{"event": "she said \"no\"\nand left"}`
	if RepairJSON(in) != in {
		t.Errorf("valid escapes were mangled: %q", RepairJSON(in))
	}
}

func TestCloseTruncatedJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "open object",
			in:   `{"npc_id": "mara"`,
			want: `{"npc_id": "mara"}`,
		},
		{
			name: "unterminated string",
			in:   `{"npc_id": "mara`,
			want: `{"npc_id": "mara"}`,
		},
		{
			name: "dangling key",
			in:   `{"npc_id": "mara", "event"`,
			want: `{"npc_id": "mara"}`,
		},
		{
			name: "dangling separator",
			in:   `{"npc_id": "mara",`,
			want: `{"npc_id": "mara"}`,
		},
		{
			name: "key without value",
			in:   `{"npc_id": "mara", "event":`,
			want: `{"npc_id": "mara"}`,
		},
		{
			name: "nested array and object",
			in:   `{"npcs": [{"name": "Mara"`,
			want: `{"npcs": [{"name": "Mara"}]}`,
		},
		{
			name: "already complete",
			in:   `{"npc_id": "mara"}`,
			want: `{"npc_id": "mara"}`,
		},
		{
			name: "empty",
			in:   "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CloseTruncatedJSON(tt.in)
			if got != tt.want {
				t.Errorf("CloseTruncatedJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if tt.want != "" && !json.Valid([]byte(got)) {
				t.Errorf("result %q is not valid JSON", got)
			}
		})
	}
}

func TestSalvageTruncatedNarration(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "trims mid-sentence tail",
			in:   "The door swings open onto darkness. You step forward, and the floor",
			want: "The door swings open onto darkness.",
		},
		{
			name: "keeps dialogue enders",
			in:   `"Get down, all of you!" she shouts over the wind. The blast catches the`,
			want: `"Get down, all of you!" she shouts over the wind.`,
		},
		{
			name: "removes unclosed metadata tag",
			in:   "The harbor falls silent.\n<memory_updates>[{\"npc_id\": \"mara\", \"ev",
			want: "The harbor falls silent.",
		},
		{
			name: "short prefix kept whole",
			in:   "A. Then everything went sideways and",
			want: "A. Then everything went sideways and",
		},
		{
			name: "no sentence end at all",
			in:   "the long slow creak of the",
			want: "the long slow creak of the",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SalvageTruncatedNarration(tt.in)
			if got != tt.want {
				t.Errorf("SalvageTruncatedNarration(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
