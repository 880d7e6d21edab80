package automap

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"punctuation and case", "RTO - Road safety tax / CESS.", "rtoroadsafetytaxcess"},
		{"percent sign", "Road Tax %", "roadtax"},
		{"bracketed annotation", "Ex-Showroom Price [130]", "exshowroomprice130"},
		{"camel case key", "effectiveOnRoadCore", "effectiveonroadcore"},
		{"underscore removed", "ex_showroom", "exshowroom"},
		{"non-ASCII dropped", "Préix", "prix"},
		{"empty", "", ""},
		{"only punctuation", " -/%. ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "long label",
			input: "Road tax (% tax on Ex showroom excl. subsidy) [130]",
			want:  []string{"road", "tax", "tax", "showroom", "excl", "subsidy", "130"},
		},
		{
			name:  "single token",
			input: "EMPS",
			want:  []string{"emps"},
		},
		{
			name:  "short tokens dropped",
			input: "a to be",
			want:  nil,
		},
		{
			name:  "underscore is a word character",
			input: "ex_showroom price",
			want:  []string{"ex_showroom", "price"},
		},
		{
			name:  "punctuation splits tokens",
			input: "price/discount-core",
			want:  []string{"price", "discount", "core"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Keywords(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Keywords(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
