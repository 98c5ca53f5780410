package strgen

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDGenerator_Generate(t *testing.T) {
	hexRegex := regexp.MustCompile(`^[0-9a-f]{32}$`)

	tests := []struct {
		name    string
		options *UUIDOptions
		version byte
	}{
		{"nil options use v7", nil, 7},
		{"empty version use v7", &UUIDOptions{}, 7},
		{"v4", &UUIDOptions{Version: "v4"}, 4},
		{"v6", &UUIDOptions{Version: "v6"}, 6},
		{"unknown version fallback to v7", &UUIDOptions{Version: "v9"}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewUUIDGeneratorWithOptions(tt.options).Generate()
			if !hexRegex.MatchString(result) {
				t.Fatalf("generated id %s does not match expected format", result)
			}
			parsed, err := uuid.Parse(result)
			if err != nil {
				t.Fatalf("generated id %s is not a valid uuid: %v", result, err)
			}
			if got := byte(parsed.Version()); got != tt.version {
				t.Errorf("expected version %d, got %d", tt.version, got)
			}
		})
	}
}

func TestUUIDGenerator_WithHyphens(t *testing.T) {
	result := NewUUIDGeneratorWithOptions(&UUIDOptions{WithHyphens: true}).Generate()
	if len(result) != 36 || result[8] != '-' || result[14] != '7' {
		t.Errorf("expected hyphenated v7 uuid, got %s", result)
	}
}

func TestUUIDGenerator_Sortable(t *testing.T) {
	gen := NewUUIDGeneratorWithOptions(nil)
	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 1000; i++ {
		id := gen.Generate()
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
		if id <= prev {
			t.Fatalf("v7 ids should increase, got %s after %s", id, prev)
		}
		prev = id
	}
}
