package textutil

import (
	"reflect"
	"testing"
)

func TestNormalizeStringMap(t *testing.T) {
	input := map[string]string{
		" CAFE_NAME ":   " Le Chic Café ",
		"CAFE_CURRENCY": " rwf ",
		"EMPTY_VALUE":   " ",
		" ":             "dropped",
		"":              "dropped",
	}
	expected := map[string]string{
		"CAFE_NAME":     "Le Chic Café",
		"CAFE_CURRENCY": "rwf",
		"EMPTY_VALUE":   "",
	}

	actual := NormalizeStringMap(input)
	if !reflect.DeepEqual(actual, expected) {
		t.Fatalf("expected %#v got %#v", expected, actual)
	}
}

func TestNormalizeStringMapEmptyInput(t *testing.T) {
	if NormalizeStringMap(nil) != nil {
		t.Fatal("expected nil for nil input")
	}
	if NormalizeStringMap(map[string]string{}) != nil {
		t.Fatal("expected nil for empty map")
	}
	if NormalizeStringMap(map[string]string{" ": "x"}) != nil {
		t.Fatal("expected nil when all keys are blank")
	}
}
