package automap

import (
	"reflect"
	"testing"
)

// pricingFields is a realistic catalog used across reconcile tests.
var pricingFields = []Field{
	{Key: "exShowroom", Label: "Ex-showroom price"},
	{Key: "insurance", Label: "Insurance"},
	{Key: "roadTax", Label: "Road tax (% tax on Ex showroom excl. subsidy) [130]"},
	{Key: "rtoRoadSafetyTax", Label: "RTO - Road safety tax / CESS."},
	{Key: "emps", Label: "EMPS"},
	{Key: "stateSubsidy", Label: "State subsidy"},
	{Key: "discount", Label: "Dealer discount"},
	{Key: "effectiveOnRoadCore", Label: "Effective on road Price to customer - Core"},
}

var pricingColumns = []string{
	"Model", "Region", "Ex Showroom Price", "Insurance (1st yr)", "Road Tax %",
	"RTO Road Safety Tax", "Effective Road Price Core", "EMPS Price", "State Subsidy", "Discount",
}

func TestReconcile_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		fields  []Field
		columns []string
		want    Mapping
	}{
		{
			name:    "exact pass",
			fields:  []Field{{Key: "insurance", Label: "Insurance"}},
			columns: []string{"Insurance", "Product Name"},
			want:    Mapping{"insurance": "Insurance"},
		},
		{
			name:    "road tax",
			fields:  []Field{{Key: "roadTax", Label: "Road tax (% tax on Ex showroom excl. subsidy) [130]"}},
			columns: []string{"Road Tax %"},
			want:    Mapping{"roadTax": "Road Tax %"},
		},
		{
			name:    "only denylisted columns",
			fields:  []Field{{Key: "stateSubsidy", Label: "State subsidy"}},
			columns: []string{"Model", "Region"},
			want:    Mapping{},
		},
		{
			name: "longer label picks first",
			fields: []Field{
				{Key: "emps", Label: "EMPS"},
				{Key: "effectiveOnRoadCore", Label: "Effective on road Price to customer - Core"},
			},
			columns: []string{"Effective Road Price Core", "EMPS Price"},
			want: Mapping{
				"effectiveOnRoadCore": "Effective Road Price Core",
				"emps":                "EMPS Price",
			},
		},
		{
			name:    "no columns",
			fields:  []Field{{Key: "insurance", Label: "Insurance"}},
			columns: nil,
			want:    Mapping{},
		},
		{
			name:    "no fields",
			fields:  nil,
			columns: []string{"Insurance"},
			want:    Mapping{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.fields, tt.columns, DefaultOptions())
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Reconcile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReconcile_LongLabelNotStarved(t *testing.T) {
	fields := []Field{
		{Key: "emps", Label: "EMPS"},
		{Key: "effectiveOnRoadCore", Label: "Effective on road Price to customer - Core"},
	}
	got := Reconcile(fields, []string{"EMPS Price", "Effective Road Price Core"}, DefaultOptions())

	if _, ok := got["effectiveOnRoadCore"]; !ok {
		t.Fatalf("effectiveOnRoadCore unmapped: %v", got)
	}
	assertInjective(t, got)
}

func TestReconcile_ExactBeatsEarlierFuzzy(t *testing.T) {
	// roadCharges comes first and would take "Road Tax" by keyword overlap if
	// exact matching were not done for the whole catalog up front.
	fields := []Field{
		{Key: "roadCharges", Label: "Road charges"},
		{Key: "roadTax", Label: "Road Tax"},
	}
	got := Reconcile(fields, []string{"Road Tax"}, DefaultOptions())

	want := Mapping{"roadTax": "Road Tax"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reconcile() = %v, want %v", got, want)
	}
}

func TestReconcile_CleanedExactBeatsFuzzy(t *testing.T) {
	fields := []Field{
		{Key: "rtoCess", Label: "RTO cess"},
		{Key: "rtoRoadSafetyTax", Label: "RTO - Road safety tax / CESS."},
	}
	got := Reconcile(fields, []string{"RTO Road Safety Tax", "RTO cess amount"}, DefaultOptions())

	want := Mapping{
		"rtoRoadSafetyTax": "RTO Road Safety Tax",
		"rtoCess":          "RTO cess amount",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reconcile() = %v, want %v", got, want)
	}
}

func TestReconcile_DuplicateHeaders(t *testing.T) {
	fields := []Field{
		{Key: "insurance", Label: "Insurance"},
		{Key: "insuranceAddOn", Label: "Insurance"},
	}
	got := Reconcile(fields, []string{"Insurance", "Insurance"}, DefaultOptions())

	want := Mapping{"insurance": "Insurance"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reconcile() = %v, want %v", got, want)
	}
}

func TestReconcile_Properties(t *testing.T) {
	opts := DefaultOptions()
	first := Reconcile(pricingFields, pricingColumns, opts)
	second := Reconcile(pricingFields, pricingColumns, opts)

	t.Run("idempotent", func(t *testing.T) {
		if !reflect.DeepEqual(first, second) {
			t.Errorf("runs differ:\n%v\n%v", first, second)
		}
	})

	t.Run("injective", func(t *testing.T) {
		assertInjective(t, first)
	})

	t.Run("denylisted columns never assigned", func(t *testing.T) {
		for key, col := range first {
			if col == "Model" || col == "Region" {
				t.Errorf("%s mapped to denylisted column %q", key, col)
			}
		}
	})

	t.Run("full mapping", func(t *testing.T) {
		want := Mapping{
			"exShowroom":          "Ex Showroom Price",
			"insurance":           "Insurance (1st yr)",
			"roadTax":             "Road Tax %",
			"rtoRoadSafetyTax":    "RTO Road Safety Tax",
			"emps":                "EMPS Price",
			"stateSubsidy":        "State Subsidy",
			"discount":            "Discount",
			"effectiveOnRoadCore": "Effective Road Price Core",
		}
		if !reflect.DeepEqual(first, want) {
			t.Errorf("Reconcile() = %v, want %v", first, want)
		}
	})

	t.Run("threshold respected", func(t *testing.T) {
		m := NewMatcher(opts)
		for _, f := range pricingFields {
			col, ok := first[f.Key]
			if !ok {
				continue
			}
			if _, exact := exactMatch(newProfile(f), []string{col}); exact {
				continue
			}
			if _, cleaned := cleanedMatch(newProfile(f), []string{col}); cleaned {
				continue
			}
			if s, _ := m.Score(f, col); s < opts.Threshold {
				t.Errorf("%s mapped to %q with score %v below threshold", f.Key, col, s)
			}
		}
	})
}

func TestReconcileWith_Pinned(t *testing.T) {
	fields := []Field{
		{Key: "insurance", Label: "Insurance"},
		{Key: "roadTax", Label: "Road tax"},
	}
	columns := []string{"Insurance", "Road Tax"}
	pinned := Mapping{"roadTax": "Insurance"}

	got := ReconcileWith(fields, columns, pinned, DefaultOptions())

	want := Mapping{"roadTax": "Insurance"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReconcileWith() = %v, want %v", got, want)
	}
	if len(pinned) != 1 || pinned["roadTax"] != "Insurance" {
		t.Errorf("pinned mapping was modified: %v", pinned)
	}
}

func TestReconcileWith_PinFreesOtherFields(t *testing.T) {
	fields := []Field{
		{Key: "insurance", Label: "Insurance"},
		{Key: "roadTax", Label: "Road tax"},
	}
	columns := []string{"Insurance", "Road Tax", "Insurance (own damage)"}
	pinned := Mapping{"insurance": "Insurance (own damage)"}

	got := ReconcileWith(fields, columns, pinned, DefaultOptions())

	want := Mapping{"insurance": "Insurance (own damage)", "roadTax": "Road Tax"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReconcileWith() = %v, want %v", got, want)
	}
}

func TestFuzzyOrder(t *testing.T) {
	fields := []Field{
		{Key: "emps", Label: "EMPS"},
		{Key: "a", Label: "Two words"},
		{Key: "effectiveOnRoadCore", Label: "Effective on road Price to customer - Core"},
		{Key: "b", Label: "Two more"},
	}

	got := FuzzyOrder(fields)

	var keys []string
	for _, f := range got {
		keys = append(keys, f.Key)
	}
	want := []string{"effectiveOnRoadCore", "a", "b", "emps"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("FuzzyOrder() keys = %v, want %v", keys, want)
	}
	if fields[0].Key != "emps" {
		t.Error("FuzzyOrder() modified its input")
	}
}

func TestReconcile_ConcurrentCalls(t *testing.T) {
	want := Reconcile(pricingFields, pricingColumns, DefaultOptions())

	done := make(chan Mapping, 8)
	for i := 0; i < cap(done); i++ {
		go func() {
			done <- Reconcile(pricingFields, pricingColumns, DefaultOptions())
		}()
	}
	for i := 0; i < cap(done); i++ {
		if got := <-done; !reflect.DeepEqual(got, want) {
			t.Errorf("concurrent Reconcile() = %v, want %v", got, want)
		}
	}
}

func assertInjective(t *testing.T, m Mapping) {
	t.Helper()
	seen := make(map[string]string)
	for key, col := range m {
		if other, ok := seen[col]; ok {
			t.Errorf("column %q assigned to both %s and %s", col, other, key)
		}
		seen[col] = key
	}
}
