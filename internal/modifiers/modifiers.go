// Package modifiers folds bonus sources (gear, prayers, pets, potions, agility,
// shop upgrades) into one normalized modifier table.
package modifiers

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one sub-keyed value of a list modifier (e.g. +5 hidden levels for skill 3).
type Entry struct {
	SubKey int     `yaml:"id" json:"id"`
	Value  float64 `yaml:"value" json:"value"`
}

// Value holds either a scalar or a list of sub-keyed entries.
type Value struct {
	Scalar float64
	List   []Entry
	IsList bool
}

// ScalarValue returns a scalar Value.
func ScalarValue(v float64) Value {
	return Value{Scalar: v}
}

// ListValue returns a list Value.
func ListValue(entries ...Entry) Value {
	return Value{List: append([]Entry(nil), entries...), IsList: true}
}

// UnmarshalYAML accepts either a number or a sequence of {id, value} maps.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var f float64
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("scalar modifier: %w", err)
		}
		*v = ScalarValue(f)
	case yaml.SequenceNode:
		var entries []Entry
		if err := node.Decode(&entries); err != nil {
			return fmt.Errorf("list modifier: %w", err)
		}
		*v = ListValue(entries...)
	default:
		return fmt.Errorf("modifier value must be a number or a list, got node kind %d", node.Kind)
	}
	return nil
}

// MarshalYAML writes scalars as numbers and lists as sequences.
func (v Value) MarshalYAML() (interface{}, error) {
	if v.IsList {
		return v.List, nil
	}
	return v.Scalar, nil
}

// Table maps a full modifier key (e.g. "increasedGlobalAccuracy") to its value.
type Table map[string]Value

// New returns a table seeded with the zero default of every template key.
func New() Table {
	t := make(Table, len(template))
	for key, kind := range template {
		if kind == KindList {
			t[key] = Value{IsList: true}
		} else {
			t[key] = Value{}
		}
	}
	return t
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		if v.IsList {
			v.List = append([]Entry(nil), v.List...)
		}
		out[k] = v
	}
	return out
}

// Merge adds every key of src into t. List entries are appended, scalars summed.
func (t Table) Merge(src Table) {
	Merge(t, src)
}

// Merge adds every key of src into dst. List entries are appended, scalars summed.
func Merge(dst, src Table) {
	for key, value := range src {
		cur, ok := dst[key]
		if value.IsList {
			cur.IsList = true
			cur.List = append(cur.List, value.List...)
			dst[key] = cur
			continue
		}
		if ok && cur.IsList {
			// A scalar merged into a list key is recorded against sub-key 0.
			cur.List = append(cur.List, Entry{SubKey: 0, Value: value.Scalar})
			dst[key] = cur
			continue
		}
		cur.Scalar += value.Scalar
		dst[key] = cur
	}
}

// Get returns the raw value of a full key. For list keys it sums the entries
// matching subKey, or every entry when no sub-key is given.
func (t Table) Get(key string, subKey ...int) float64 {
	v, ok := t[key]
	if !ok {
		return 0
	}
	if !v.IsList {
		return v.Scalar
	}
	total := 0.0
	for _, e := range v.List {
		if len(subKey) == 0 || e.SubKey == subKey[0] {
			total += e.Value
		}
	}
	return total
}

// Resolve returns increased<name> - decreased<name>, optionally for one sub-key.
// Names absent from the table resolve to 0.
func (t Table) Resolve(name string, subKey ...int) float64 {
	return t.Get(Increased+name, subKey...) - t.Get(Decreased+name, subKey...)
}

// Halve returns a copy of t with every negative contribution halved.
// A "decreased" key is itself a penalty, so its positive values are halved too.
func Halve(t Table) Table {
	out := t.Clone()
	for key, v := range out {
		penalty := strings.HasPrefix(key, Decreased)
		if v.IsList {
			for i := range v.List {
				if penalty == (v.List[i].Value > 0) {
					v.List[i].Value /= 2
				}
			}
			out[key] = v
			continue
		}
		if penalty == (v.Scalar > 0) {
			v.Scalar /= 2
			out[key] = v
		}
	}
	return out
}

// Keys returns the table keys in sorted order.
func (t Table) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
