package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testCatalog(key string) Catalog {
	return Catalog{
		Key:   key,
		Label: "Test",
		Fields: []Field{
			{Key: "listPrice", Label: "List price", Required: true},
			{Key: "discount", Label: "Discount"},
		},
	}
}

func TestCatalog_Validate(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		wantErr string
	}{
		{"valid", testCatalog("ok"), ""},
		{"missing key", Catalog{Fields: []Field{{Key: "a"}}}, "catalog key is required"},
		{"no fields", Catalog{Key: "empty"}, "no fields"},
		{"blank field key", Catalog{Key: "x", Fields: []Field{{Label: "A"}}}, "field 1 has no key"},
		{"duplicate field key", Catalog{Key: "x", Fields: []Field{{Key: "a"}, {Key: "a"}}}, `duplicate field key "a"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestCatalog_Accessors(t *testing.T) {
	c := testCatalog("acc")

	fields := c.AutomapFields()
	if len(fields) != 2 || fields[0].Key != "listPrice" || fields[0].Label != "List price" {
		t.Errorf("AutomapFields() = %+v", fields)
	}

	if f, ok := c.Field("discount"); !ok || f.Label != "Discount" {
		t.Errorf("Field(discount) = %+v, %v", f, ok)
	}
	if _, ok := c.Field("missing"); ok {
		t.Error("Field(missing) should not be found")
	}

	if got := c.RequiredKeys(); len(got) != 1 || got[0] != "listPrice" {
		t.Errorf("RequiredKeys() = %v, want [listPrice]", got)
	}
}

func TestRegistry(t *testing.T) {
	Clear()
	defer Clear()

	Register(testCatalog("b"))
	Register(testCatalog("a"))

	if Count() != 2 {
		t.Fatalf("Count() = %d, want 2", Count())
	}
	if keys := Keys(); len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}
	if _, ok := Get("a"); !ok {
		t.Error("Get(a) not found")
	}

	_, err := Lookup("nope")
	if !errors.Is(err, ErrUnknownCatalog) {
		t.Errorf("Lookup(nope) error = %v, want ErrUnknownCatalog", err)
	}

	if err := Add(testCatalog("a")); err == nil {
		t.Error("Add() should reject a duplicate key")
	}
}

func TestRegister_PanicsOnDuplicate(t *testing.T) {
	Clear()
	defer Clear()

	Register(testCatalog("dup"))

	defer func() {
		if recover() == nil {
			t.Error("Register() should panic on duplicate key")
		}
	}()
	Register(testCatalog("dup"))
}

func TestRegister_CopiesFields(t *testing.T) {
	Clear()
	defer Clear()

	c := testCatalog("copy")
	Register(c)
	c.Fields[0].Label = "changed"

	got, _ := Get("copy")
	if got.Fields[0].Label != "List price" {
		t.Errorf("registered catalog changed through caller slice: %q", got.Fields[0].Label)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
key: rates
label: Rates
fields:
  - key: taxRate
    label: "Tax rate (%)"
    required: true
  - key: note
    label: Note
`)

	c, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if c.Key != "rates" || len(c.Fields) != 2 {
		t.Fatalf("Parse() = %+v", c)
	}
	if !c.Fields[0].Required || c.Fields[0].Label != "Tax rate (%)" {
		t.Errorf("Fields[0] = %+v", c.Fields[0])
	}
	if c.Fields[1].Required {
		t.Errorf("Fields[1].Required = true, want false")
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("key: [unclosed")); err == nil {
		t.Error("Parse() expected decode error")
	}
	if _, err := Parse([]byte("key: nofields\n")); err == nil {
		t.Error("Parse() expected validation error")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("b.yml", "key: second\nfields:\n  - key: x\n    label: X\n")
	write("a.yaml", "key: first\nfields:\n  - key: y\n    label: Y\n")
	write("notes.txt", "ignored")
	if err := os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(got) != 2 || got[0].Key != "first" || got[1].Key != "second" {
		t.Errorf("LoadDir() = %+v", got)
	}
}

func TestLoadDir_BadFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("key: bad\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadDir(dir)
	if err == nil || !strings.Contains(err.Error(), "bad.yaml") {
		t.Errorf("LoadDir() error = %v, want it to name bad.yaml", err)
	}
}

func TestBuiltin(t *testing.T) {
	catalogs, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}

	var vehicle *Catalog
	for i := range catalogs {
		if catalogs[i].Key == "vehicle_pricing" {
			vehicle = &catalogs[i]
		}
	}
	if vehicle == nil {
		t.Fatal("vehicle_pricing catalog not embedded")
	}

	f, ok := vehicle.Field("roadTax")
	if !ok || f.Label != "Road tax (% tax on Ex showroom excl. subsidy) [130]" || !f.Required {
		t.Errorf("roadTax field = %+v, %v", f, ok)
	}
}

func TestLoad(t *testing.T) {
	Clear()
	defer Clear()

	dir := t.TempDir()
	body := "key: custom\nfields:\n  - key: z\n    label: Z\n"
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Load(dir); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, key := range []string{"vehicle_pricing", "price_list", "custom"} {
		if _, ok := Get(key); !ok {
			t.Errorf("catalog %s not registered", key)
		}
	}
}

func TestLoad_RejectsBuiltinKey(t *testing.T) {
	Clear()
	defer Clear()

	dir := t.TempDir()
	body := "key: price_list\nfields:\n  - key: z\n    label: Z\n"
	if err := os.WriteFile(filepath.Join(dir, "dup.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Load(dir); err == nil {
		t.Error("Load() should reject a catalog reusing a built-in key")
	}
}
