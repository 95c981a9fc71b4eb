package normalize

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Transform converts a source value into its canonical form. It returns false
// when the value cannot be converted, in which case the next alias is tried.
type Transform func(any) (any, bool)

// FieldMapping resolves one canonical target from an ordered list of source
// names. The first alias present on the source wins. The target itself must be
// listed among the aliases so that an already-normalized record maps onto
// itself.
//
// Nested aliases are consulted only when the source is a resolved container,
// never on the flat row, because at the top level they name other output
// fields.
type FieldMapping struct {
	Target    string
	Aliases   []string
	Nested    []string
	Transform Transform
}

// Group is the declarative description of one logical container.
type Group struct {
	Name       string
	Containers []string
	Schema     *Schema
	Fields     []FieldMapping
}

// Source returns the first candidate container that parses to an object. When
// none does, the raw row itself is the source so un-nested rows still populate,
// and nested is false.
func (g Group) Source(raw Record) (src map[string]any, nested bool) {
	for _, key := range g.Containers {
		if obj, ok := Parse(raw[key], g.Schema); ok {
			return obj, true
		}
	}
	return raw, false
}

// Apply fills the group's canonical fields on out. Targets that are already
// populated are left alone.
func (g Group) Apply(raw, out Record) {
	src, nested := g.Source(raw)
	for _, f := range g.Fields {
		if present(out[f.Target]) {
			continue
		}
		if v, ok := f.resolve(src, nested); ok {
			out[f.Target] = v
		}
	}
}

func (f FieldMapping) resolve(src map[string]any, nested bool) (any, bool) {
	aliases := f.Aliases
	if nested && len(f.Nested) > 0 {
		aliases = append(append([]string{}, f.Aliases...), f.Nested...)
	}
	for _, alias := range aliases {
		v, ok := src[alias]
		if !ok || v == nil {
			continue
		}
		if f.Transform == nil {
			return v, true
		}
		if t, ok := f.Transform(v); ok {
			return t, true
		}
	}
	return nil, false
}

func field(target string, aliases ...string) FieldMapping {
	return FieldMapping{Target: target, Aliases: append([]string{target}, aliases...)}
}

// inContainer appends aliases that only apply inside a container.
func (f FieldMapping) inContainer(aliases ...string) FieldMapping {
	f.Nested = aliases
	return f
}

func fieldWith(t Transform, target string, aliases ...string) FieldMapping {
	m := field(target, aliases...)
	m.Transform = t
	return m
}

// toBool accepts booleans, numbers and the usual yes/no spellings.
func toBool(v any) (any, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case float64:
		return t != 0, true
	case int:
		return t != 0, true
	case int64:
		return t != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "true", "1", "y":
			return true, true
		case "no", "false", "0", "n":
			return false, true
		}
	}
	return nil, false
}

// toNumber accepts numbers and numeric strings with thousands separators or a
// rupee sign.
func toNumber(v any) (any, bool) {
	switch t := v.(type) {
	case float64, float32, int, int32, int64:
		return t, true
	case string:
		cleaned := strings.NewReplacer(",", "", "₹", "", " ", "").Replace(t)
		if cleaned == "" {
			return nil, false
		}
		n, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	}
	return nil, false
}

// approvalStatus folds the case of known decisions. Blank means unset. Any
// other text is kept so the batch check can flag it.
func approvalStatus(v any) (any, bool) {
	s, ok := v.(string)
	if !ok {
		return v, true
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, false
	case "approved":
		return "Approved", true
	case "rejected":
		return "Rejected", true
	}
	return s, true
}

// toSequence turns a payment history into an ordered slice. Objects keyed by
// event id are ordered by key.
func toSequence(v any) (any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case string:
		text := strings.TrimSpace(t)
		if text == "" {
			return nil, false
		}
		var decoded any
		if err := sonic.UnmarshalString(text, &decoded); err != nil {
			return nil, false
		}
		return toSequence(decoded)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		seq := make([]any, 0, len(keys))
		for _, k := range keys {
			seq = append(seq, t[k])
		}
		return seq, true
	}
	return nil, false
}
