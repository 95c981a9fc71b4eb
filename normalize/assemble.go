package normalize

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"
)

// Engine assembles normalized records from raw rows. The zero value uses the
// default groups and resolves no photos.
type Engine struct {
	groups []Group
	photos *PhotoResolver
}

// NewEngine returns an engine over the default groups. photos may be nil.
func NewEngine(photos *PhotoResolver) *Engine {
	return &Engine{groups: DefaultGroups(), photos: photos}
}

// NewEngineWithGroups is used by callers that need a narrower group set, such
// as web users which carry no application or payment data.
func NewEngineWithGroups(photos *PhotoResolver, groups ...Group) *Engine {
	return &Engine{groups: groups, photos: photos}
}

// Photos returns the engine's photo resolver, or nil.
func (e *Engine) Photos() *PhotoResolver {
	return e.photos
}

// NormalizeRow produces one flat record from a raw row. The raw row is not
// modified. Every step is isolated, so a failure leaves the fields that step
// would have written absent.
func (e *Engine) NormalizeRow(raw Record) Record {
	out := make(Record, len(raw)+32)
	for k, v := range raw {
		out[k] = v
	}

	groups := e.groups
	if groups == nil {
		groups = DefaultGroups()
	}
	for _, g := range groups {
		g := g
		guard(g.Name, func() { g.Apply(raw, out) })
	}

	guard("providers", func() { normalizeProviders(out) })
	guard("name", func() { fillName(out) })

	if e.photos != nil && !present(out["photo_url"]) {
		guard("photo", func() {
			if u, ok := e.photos.Resolve(out); ok {
				out["photo_url"] = u
			}
		})
	}
	return out
}

// NormalizeRows normalizes each row in order.
func (e *Engine) NormalizeRows(rows []Record) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = e.NormalizeRow(r)
	}
	return out
}

func guard(step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"step":  step,
				"panic": fmt.Sprint(r),
			}).Debug("normalization step failed")
		}
	}()
	fn()
}

// normalizeProviders turns a JSON array string into a slice. Anything else is
// left untouched.
func normalizeProviders(out Record) {
	s, ok := out["providers"].(string)
	if !ok {
		return
	}
	text := strings.TrimSpace(s)
	if text == "" {
		delete(out, "providers")
		return
	}
	var list []any
	if err := sonic.UnmarshalString(text, &list); err != nil {
		logger.WithFields(logrus.Fields{
			"providers": s,
			"error":     err.Error(),
		}).Debug("providers is not a JSON array")
		return
	}
	out["providers"] = list
}

func fillName(out Record) {
	if present(out["name"]) {
		return
	}
	for _, k := range []string{"student_name", "display_name"} {
		if present(out[k]) {
			out["name"] = out[k]
			return
		}
	}
}
