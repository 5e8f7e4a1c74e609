package tabstate

import "testing"

func TestGetPathMissingIntermediate(t *testing.T) {
	rec := Record{"a": map[string]any{"b": 1}}

	if v, ok := getPath(rec, "a", "b"); !ok || v != 1 {
		t.Fatalf("getPath(a,b) = %v, %v; want 1, true", v, ok)
	}
	if _, ok := getPath(rec, "a", "x"); ok {
		t.Fatalf("getPath(a,x) ok = true; want false")
	}
	if _, ok := getPath(rec, "x", "y"); ok {
		t.Fatalf("getPath(x,y) ok = true; want false")
	}
	if _, ok := getPath(rec, "a", "b", "c"); ok {
		t.Fatalf("getPath(a,b,c) through scalar ok = true; want false")
	}
}

func TestSetPathCreatesIntermediates(t *testing.T) {
	rec := make(Record)
	setPath(rec, 42, "a", "b", "c")

	v, ok := getPath(rec, "a", "b", "c")
	if !ok || v != 42 {
		t.Fatalf("getPath(a,b,c) = %v, %v; want 42, true", v, ok)
	}
}

func TestSetPathReplacesScalarIntermediate(t *testing.T) {
	rec := Record{"a": "scalar"}
	setPath(rec, 1, "a", "b")

	v, ok := getPath(rec, "a", "b")
	if !ok || v != 1 {
		t.Fatalf("getPath(a,b) = %v, %v; want 1, true", v, ok)
	}
}

func TestDeletePathMissingIntermediateIsNoOp(t *testing.T) {
	rec := Record{"a": map[string]any{"b": 1}}

	if deletePath(rec, "x", "y") {
		t.Fatalf("deletePath(x,y) = true; want false")
	}
	if _, ok := rec["x"]; ok {
		t.Fatalf("deletePath created structure under missing intermediate")
	}
	if !deletePath(rec, "a", "b") {
		t.Fatalf("deletePath(a,b) = false; want true")
	}
	if _, ok := getPath(rec, "a", "b"); ok {
		t.Fatalf("getPath(a,b) ok = true after delete; want false")
	}
	if _, ok := rec["a"]; !ok {
		t.Fatalf("deletePath removed the intermediate container")
	}
}
