package ir

import (
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the JSON shapes used to encode
// signatures. There is no null and no float.
type Value interface {
	irValue()
}

// String is a JSON string.
type String string

// Int is a JSON integer.
type Int int64

// Bool is a JSON boolean.
type Bool bool

// Array is a JSON array.
type Array []Value

// Object is a JSON object. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (String) irValue() {}
func (Int) irValue()    {}
func (Bool) irValue()   {}
func (Array) irValue()  {}
func (Object) irValue() {}

// Strings builds an Array of String values.
func Strings(ss ...string) Array {
	arr := make(Array, len(ss))
	for i, s := range ss {
		arr[i] = String(s)
	}
	return arr
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's string comparison orders by UTF-8 bytes, which differs for
// characters outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}
