package language

import (
	"testing"
)

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// 2-letter codes pass through
		{"ja", "ja"},
		{"JA", "ja"},
		{"zh", "zh"},
		// 3-letter codes convert
		{"jpn", "ja"},
		{"zho", "zh"},
		{"chi", "zh"},
		{"kor", "ko"},
		// Word forms
		{"Japanese", "ja"},
		{"CHINESE", "zh"},
		{"日本語", "ja"},
		{"中文", "zh"},
		// Unknown 2-letter passes through
		{"xy", "xy"},
		// Unknown 3-letter returns empty
		{"xyz", ""},
		// Empty
		{"", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToISO2(tt.input); got != tt.expected {
				t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ja", "Japanese"},
		{"zho", "Chinese"},
		{"english", "English"},
		{"", "Unknown"},
		{"xx", "XX"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestOCRModel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ja", "models/config_japan.txt"},
		{"jpn", "models/config_japan.txt"},
		{"zh", "models/config_chinese.txt"},
		{"models/config_cyrillic.txt", "models/config_cyrillic.txt"},
		{"xx", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := OCRModel(tt.input); got != tt.expected {
			t.Errorf("OCRModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
