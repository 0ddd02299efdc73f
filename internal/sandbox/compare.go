package sandbox

import (
	"encoding/json"
	"reflect"
	"sort"
)

// Compare judges whether an actual output matches the expected value. Two JSON
// arrays compare order-insensitively, since many tasks accept any element
// order; everything else compares by value after decoding.
func Compare(expected, actual json.RawMessage) bool {
	var ev, av any
	if err := json.Unmarshal(expected, &ev); err != nil {
		return false
	}
	if err := json.Unmarshal(actual, &av); err != nil {
		return false
	}

	ea, eok := ev.([]any)
	aa, aok := av.([]any)
	if eok && aok {
		if len(ea) != len(aa) {
			return false
		}
		return reflect.DeepEqual(sortedCanonical(ea), sortedCanonical(aa))
	}
	return reflect.DeepEqual(ev, av)
}

// sortedCanonical re-encodes each element and sorts the encodings, giving a
// stable order-insensitive form for mixed-type arrays.
func sortedCanonical(items []any) []string {
	out := make([]string, len(items))
	for i, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			out[i] = ""
			continue
		}
		out[i] = string(b)
	}
	sort.Strings(out)
	return out
}
