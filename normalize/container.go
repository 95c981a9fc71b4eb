// Package normalize turns raw class-request and web-user rows into the flat
// records rendered by the admin grids.
//
// Several columns of those tables ("containers" such as contact or basic) hold
// nested objects. Depending on which client wrote the row they arrive as native
// objects, JSON-encoded strings, null, or garbage. Everything in this package
// degrades to "field absent" instead of failing, so a malformed row is always
// shown to the admin rather than dropped.
package normalize

import (
	"reflect"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
)

// Record is a flat mapping from field name to value. Raw store rows and
// normalized rows share this shape.
type Record map[string]any

// ContainerKind discriminates the states a container column can be in.
type ContainerKind int

const (
	Absent ContainerKind = iota
	Raw
	Encoded
)

func (k ContainerKind) String() string {
	switch k {
	case Raw:
		return "raw"
	case Encoded:
		return "encoded"
	default:
		return "absent"
	}
}

// Container is the tagged union Absent | Raw(object) | Encoded(string).
// Only Parse looks at it; the rest of the package works on resolved objects.
type Container struct {
	Kind   ContainerKind
	Object map[string]any
	Text   string
}

var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used for development diagnostics.
// Diagnostics are emitted at debug level only.
func SetLogger(l logrus.FieldLogger) {
	if l != nil {
		logger = l
	}
}

// Classify inspects a column value without decoding it.
func Classify(v any) Container {
	switch t := v.(type) {
	case nil:
		return Container{Kind: Absent}
	case map[string]any:
		return Container{Kind: Raw, Object: t}
	case Record:
		return Container{Kind: Raw, Object: map[string]any(t)}
	case string:
		return Container{Kind: Encoded, Text: t}
	case []byte:
		return Container{Kind: Encoded, Text: string(t)}
	}

	// Named byte slices (datatypes.JSON, json.RawMessage) and driver-specific
	// map types end up here.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Container{Kind: Encoded, Text: string(rv.Bytes())}
		}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			obj := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				obj[iter.Key().String()] = iter.Value().Interface()
			}
			return Container{Kind: Raw, Object: obj}
		}
	}
	return Container{Kind: Absent}
}

// Parse resolves a container value into an object. It returns false when the
// value is absent, empty, not valid JSON, not a JSON object, or rejected by
// schema. A nil schema accepts any object. Parse never panics on input.
func Parse(v any, schema *Schema) (map[string]any, bool) {
	c := Classify(v)
	switch c.Kind {
	case Raw:
		return checked(c.Object, schema)
	case Encoded:
		text := strings.TrimSpace(c.Text)
		if text == "" {
			return nil, false
		}
		var decoded any
		if err := sonic.UnmarshalString(text, &decoded); err != nil {
			logger.WithFields(logrus.Fields{
				"schema": schema.name(),
				"error":  err.Error(),
			}).Debug("container is not valid JSON")
			return nil, false
		}
		// A jsonb column holding a JSON string reads back quoted; unwrap it once.
		if inner, isText := decoded.(string); isText && strings.HasPrefix(strings.TrimSpace(inner), "{") {
			decoded = nil
			if err := sonic.UnmarshalString(inner, &decoded); err != nil {
				return nil, false
			}
		}
		obj, ok := decoded.(map[string]any)
		if !ok {
			return nil, false
		}
		return checked(obj, schema)
	default:
		return nil, false
	}
}

func checked(obj map[string]any, schema *Schema) (map[string]any, bool) {
	if err := schema.Check(obj); err != nil {
		logger.WithError(err).Debug("container rejected by schema")
		return nil, false
	}
	return obj, true
}

// present reports whether a value counts as populated: not nil and, for
// strings, not blank.
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	default:
		return true
	}
}
