package dbtypes

import (
	"testing"
)

func TestStringListRoundTrip(t *testing.T) {
	in := StringList{"web design", "seo", "hosting"}

	val, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var out StringList
	if err := out.Scan(val); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(out) != 3 || out[0] != "web design" || out[2] != "hosting" {
		t.Fatalf("unexpected round trip result: %v", out)
	}
}

func TestStringListScanNil(t *testing.T) {
	var out StringList
	if err := out.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty list, got %v", out)
	}
}

func TestStringListEmptyValue(t *testing.T) {
	val, err := StringList{}.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if val != "[]" {
		t.Fatalf("expected empty JSON array, got %v", val)
	}
}

func TestStringListScanRejectsGarbage(t *testing.T) {
	var out StringList
	if err := out.Scan("not-json"); err == nil {
		t.Fatalf("expected parse error")
	}
}
