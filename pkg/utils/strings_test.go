package utils

import (
	"reflect"
	"testing"
)

func TestNormalizeTokens(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		expected []string
	}{
		{
			name:     "Single value",
			values:   []string{"fire"},
			expected: []string{"fire"},
		},
		{
			name:     "Comma separated with spaces",
			values:   []string{" Fire , flood,,"},
			expected: []string{"fire", "flood"},
		},
		{
			name:     "Repeated values",
			values:   []string{"HIGH", "critical,low"},
			expected: []string{"high", "critical", "low"},
		},
		{
			name:     "Empty",
			values:   []string{"", " , "},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeTokens(tt.values...)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestUniqueLower(t *testing.T) {
	got := UniqueLower([]string{"Flooded", "trapped", "FLOODED", " ", "Trapped "})
	want := []string{"flooded", "trapped"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if got := UniqueLower(nil); len(got) != 0 {
		t.Errorf("Expected empty result, got %v", got)
	}
}

func TestContainsAny(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []string
		expected bool
	}{
		{name: "Overlap", a: []string{"fire", "medical"}, b: []string{"flood", "fire"}, expected: true},
		{name: "No overlap", a: []string{"fire"}, b: []string{"flood"}, expected: false},
		{name: "Empty left", a: nil, b: []string{"flood"}, expected: false},
		{name: "Empty right", a: []string{"fire"}, b: nil, expected: false},
		{name: "Case sensitive", a: []string{"Fire"}, b: []string{"fire"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := ContainsAny(tt.a, tt.b); result != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func BenchmarkNormalizeTokens(b *testing.B) {
	values := []string{"fire,flood, Medical", "trapped", "supply need,missing person"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NormalizeTokens(values...)
	}
}
