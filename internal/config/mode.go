package config

import "slices"

// Mode selects whether emitted links are absolute remote URLs or corpus-relative paths.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// AllModes lists modes in output order.
var AllModes = []Mode{ModeOnline, ModeOffline}

var modeNormalizer = newEnumNormalizer(map[string]Mode{
	"online":  ModeOnline,
	"offline": ModeOffline,
})

// NormalizeMode converts user input into a Mode, returning "" when unknown.
func NormalizeMode(raw string) Mode {
	return modeNormalizer.normalize(raw)
}

// VariantSpec is one variant bound to one mode. It is the unit the planner and
// assembler work on.
type VariantSpec struct {
	Name      string
	Include   []string
	Reference []string
	Mode      Mode
}

// NewVariantSpec binds a variant to a mode. A category listed in both sets is
// rejected by Validate, so Include and Reference are disjoint here.
func NewVariantSpec(v Variant, m Mode) VariantSpec {
	return VariantSpec{
		Name:      v.Name,
		Include:   slices.Clone(v.Include),
		Reference: slices.Clone(v.Reference),
		Mode:      m,
	}
}

// Includes reports whether the category is fully included.
func (s VariantSpec) Includes(category string) bool {
	return slices.Contains(s.Include, category)
}

// References reports whether the category is reference-only.
func (s VariantSpec) References(category string) bool {
	return slices.Contains(s.Reference, category)
}

// InScope reports whether the variant mentions the category at all.
func (s VariantSpec) InScope(category string) bool {
	return s.Includes(category) || s.References(category)
}

// Key identifies the variant and mode in logs and reports.
func (s VariantSpec) Key() string {
	return s.Name + "/" + string(s.Mode)
}
