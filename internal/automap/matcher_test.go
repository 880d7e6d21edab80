package automap

import (
	"math"
	"testing"
)

func TestMatcher_BestMatch_Stages(t *testing.T) {
	m := NewMatcher(DefaultOptions())

	tests := []struct {
		name   string
		field  Field
		pool   []string
		want   string
		wantOK bool
	}{
		{
			name:   "exact label",
			field:  Field{Key: "insurance", Label: "Insurance"},
			pool:   []string{"Product Name", "INSURANCE"},
			want:   "INSURANCE",
			wantOK: true,
		},
		{
			name:   "exact key wins over earlier fuzzy candidate",
			field:  Field{Key: "roadTax", Label: "Road tax on ex showroom"},
			pool:   []string{"Road tax on ex-showroom", "roadtax"},
			want:   "roadtax",
			wantOK: true,
		},
		{
			name:   "first exact match wins",
			field:  Field{Key: "emps", Label: "EMPS"},
			pool:   []string{"emps", "EMPS"},
			want:   "emps",
			wantOK: true,
		},
		{
			name:   "cleaned exact",
			field:  Field{Key: "rtoRoadSafetyTax", Label: "RTO - Road safety tax / CESS."},
			pool:   []string{"RTO charges", "RTO Road Safety Tax"},
			want:   "RTO Road Safety Tax",
			wantOK: true,
		},
		{
			name:   "fuzzy substring",
			field:  Field{Key: "emps", Label: "EMPS"},
			pool:   []string{"Insurance", "EMPS Price"},
			want:   "EMPS Price",
			wantOK: true,
		},
		{
			name:   "no candidate clears threshold",
			field:  Field{Key: "insurance", Label: "Insurance"},
			pool:   []string{"Zebra"},
			wantOK: false,
		},
		{
			name:   "empty pool",
			field:  Field{Key: "insurance", Label: "Insurance"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.BestMatch(tt.field, tt.pool)
			if ok != tt.wantOK {
				t.Fatalf("BestMatch() ok = %v, want %v (got %q)", ok, tt.wantOK, got)
			}
			if got != tt.want {
				t.Errorf("BestMatch() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatcher_Denylist(t *testing.T) {
	field := Field{Key: "name", Label: "Name"}
	pool := []string{"Product Name"}

	m := NewMatcher(DefaultOptions())
	if got, ok := m.BestMatch(field, pool); ok {
		t.Errorf("BestMatch() = %q, want no match for denylisted header", got)
	}
	if _, ok := m.Score(field, "Product Name"); ok {
		t.Error("Score() should report denylisted header as unscored")
	}

	// Same input with the denylist switched off scores as a substring.
	open := NewMatcher(Options{BoostTokens: DefaultBoostTokens})
	got, ok := open.BestMatch(field, pool)
	if !ok || got != "Product Name" {
		t.Errorf("BestMatch() without denylist = %q, %v; want %q, true", got, ok, "Product Name")
	}
}

func TestMatcher_DenylistCaseInsensitive(t *testing.T) {
	m := NewMatcher(Options{Denylist: []string{"MODEL"}})
	if _, ok := m.Score(Field{Key: "price", Label: "Price"}, "Model Price"); ok {
		t.Error("upper-case denylist token should still exclude the header")
	}
}

func TestMatcher_Score(t *testing.T) {
	m := NewMatcher(DefaultOptions())

	// Key and header normalize to the same string.
	road := Field{Key: "roadTax", Label: "Road tax (% tax on Ex showroom excl. subsidy) [130]"}
	if s, _ := m.Score(road, "Road Tax %"); math.Abs(s-1.0) > epsilon {
		t.Errorf("Score(roadTax, Road Tax %%) = %v, want 1.0", s)
	}

	// Substring on the label.
	cess := Field{Key: "rtoCess", Label: "RTO cess"}
	if s, _ := m.Score(cess, "RTO cess amount"); math.Abs(s-0.8) > epsilon {
		t.Errorf("Score(rtoCess, RTO cess amount) = %v, want 0.8", s)
	}
}

func TestMatcher_Score_DomainBoost(t *testing.T) {
	// "roadtaxrate" vs "roadtxrt" is 3 edits over 11 bytes; only "road" is
	// shared between the key and the header.
	field := Field{Key: "roadTaxRate", Label: "Levy"}
	base := 8.0 / 11.0

	tests := []struct {
		name string
		opts Options
		want float64
	}{
		{"no boost tokens", Options{}, base},
		{"default boost", DefaultOptions(), base + 0.2},
		{"boost is not clamped", Options{BoostTokens: []string{"road"}, BoostWeight: 0.5}, base + 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewMatcher(tt.opts).Score(field, "Road Tx Rt")
			if !ok {
				t.Fatal("Score() reported header as denylisted")
			}
			if math.Abs(got-tt.want) > epsilon {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatcher_Score_BoostsStack(t *testing.T) {
	field := Field{Key: "rtoTax", Label: "Registration"}
	col := "RTO charges tax"

	plain, _ := NewMatcher(Options{}).Score(field, col)
	boosted, _ := NewMatcher(DefaultOptions()).Score(field, col)

	if plain >= 0.8 {
		t.Fatalf("unboosted score = %v, test needs a score below 0.8", plain)
	}
	if math.Abs(boosted-plain-0.4) > epsilon {
		t.Errorf("boosted - plain = %v, want 0.4 (rto + tax)", boosted-plain)
	}
}

func TestMatcher_Score_NoBoostAtSubstringScore(t *testing.T) {
	field := Field{Key: "roadTax", Label: "Road tax"}
	got, _ := NewMatcher(DefaultOptions()).Score(field, "tax")
	if math.Abs(got-0.8) > epsilon {
		t.Errorf("Score() = %v, want 0.8 without boosts", got)
	}
}

func TestMatcher_Score_KeywordOverlap(t *testing.T) {
	// "cover" is contained in "covered"; no other comparison gets as close.
	field := Field{Key: "zz", Label: "Cover amount"}
	got, _ := NewMatcher(Options{}).Score(field, "Covered amt")
	if math.Abs(got-0.8) > epsilon {
		t.Errorf("Score() = %v, want 0.8", got)
	}
}

func TestMatcher_TieKeepsPoolOrder(t *testing.T) {
	m := NewMatcher(DefaultOptions())
	field := Field{Key: "effectiveOnRoadCore", Label: "Effective on road Price to customer - Core"}

	got, ok := m.BestMatch(field, []string{"Effective Road Price Core", "EMPS Price"})
	if !ok || got != "Effective Road Price Core" {
		t.Errorf("BestMatch() = %q, %v; want first tied header", got, ok)
	}

	got, ok = m.BestMatch(field, []string{"EMPS Price", "Effective Road Price Core"})
	if !ok || got != "EMPS Price" {
		t.Errorf("BestMatch() = %q, %v; want first tied header", got, ok)
	}
}

func TestMatcher_Rank(t *testing.T) {
	m := NewMatcher(DefaultOptions())
	field := Field{Key: "emps", Label: "EMPS"}

	ranked := m.Rank(field, []string{"Model", "Zebra", "EMPS Price", "emps"})

	if len(ranked) != 3 {
		t.Fatalf("Rank() returned %d candidates, want 3 (Model is denylisted)", len(ranked))
	}
	// Both score 0.8 through containment; pool order decides.
	if ranked[0].Column != "EMPS Price" || ranked[0].Score != 0.8 {
		t.Errorf("ranked[0] = %+v, want EMPS Price at 0.8", ranked[0])
	}
	if ranked[1].Column != "emps" || ranked[1].Score != 0.8 {
		t.Errorf("ranked[1] = %+v, want emps at 0.8", ranked[1])
	}
	if ranked[2].Column != "Zebra" {
		t.Errorf("ranked[2] = %+v, want Zebra", ranked[2])
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("Rank() not sorted: %v", ranked)
		}
	}
}

func TestNewMatcher_Defaults(t *testing.T) {
	opts := NewMatcher(Options{}).Options()
	if opts.Threshold != DefaultThreshold {
		t.Errorf("Threshold = %v, want %v", opts.Threshold, DefaultThreshold)
	}
	if opts.BoostWeight != DefaultBoostWeight {
		t.Errorf("BoostWeight = %v, want %v", opts.BoostWeight, DefaultBoostWeight)
	}
	if len(opts.Denylist) != 0 {
		t.Errorf("Denylist = %v, want empty when not given", opts.Denylist)
	}
}
