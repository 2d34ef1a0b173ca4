// Package preset holds the canonical emotion preset catalog: named, ordered
// bundles of edits representing canned emotions. The catalog is embedded,
// loaded once and never mutated at runtime.
package preset

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/facepoke/internal/expression"
	"github.com/kozaktomas/facepoke/internal/landmark"
)

//go:embed presets.yaml
var presetsYAML []byte

// Edit is one declared edit inside a preset. Presets may emit several edits
// touching the same group; they apply strictly in declaration order.
type Edit struct {
	Group  landmark.Group    `yaml:"group" json:"group"`
	Vector expression.Vector `yaml:"vector" json:"vector"`
	Params expression.Params `yaml:"params" json:"params,omitempty"`
}

// Preset is a named, ordered bundle of edits.
type Preset struct {
	Name  string `yaml:"name" json:"name"`
	Edits []Edit `yaml:"edits" json:"edits"`
}

// Accumulate folds the preset's params into a single map, the same way the
// composition engine accumulates a session's state.
func (p Preset) Accumulate() expression.Params {
	acc := make(expression.Params)
	for _, e := range p.Edits {
		for name, value := range e.Params {
			acc[name] += value
		}
	}
	return acc
}

type catalogFile struct {
	Presets []Preset `yaml:"presets"`
}

var (
	presets []Preset
	byName  map[string]Preset
)

func init() {
	var file catalogFile
	if err := yaml.Unmarshal(presetsYAML, &file); err != nil {
		// Embedded file, a failure here is a build-time data bug.
		panic("failed to unmarshal embedded presets.yaml: " + err.Error())
	}
	if err := validate(file.Presets); err != nil {
		panic("invalid embedded presets.yaml: " + err.Error())
	}

	presets = file.Presets
	byName = make(map[string]Preset, len(presets))
	for _, p := range presets {
		byName[normalizeName(p.Name)] = p
	}
}

// validate checks the embedded table against the landmark catalog so a bad
// edit never reaches a session.
func validate(presets []Preset) error {
	for _, p := range presets {
		if p.Name == "" {
			return fmt.Errorf("preset without a name")
		}
		if len(p.Edits) == 0 {
			return fmt.Errorf("preset %q has no edits", p.Name)
		}
		for i, e := range p.Edits {
			if !landmark.Known(e.Group) {
				return fmt.Errorf("preset %q edit %d: unknown group %q", p.Name, i, e.Group)
			}
			for name := range e.Params {
				if !landmark.Accepts(e.Group, name) {
					return fmt.Errorf("preset %q edit %d: group %s does not accept %s", p.Name, i, e.Group, name)
				}
			}
		}
	}
	return nil
}

// removeDiacritics strips combining marks so lookups survive accented input.
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// normalizeName folds a preset name for lookup: case-insensitive, no
// diacritics, dashes as spaces. Both "Happy" and "happy" resolve.
func normalizeName(name string) string {
	name = removeDiacritics(name)
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "-", " ")
	return name
}

// All returns every preset in catalog order.
func All() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// Names returns the preset names in catalog order.
func Names() []string {
	out := make([]string, len(presets))
	for i, p := range presets {
		out[i] = p.Name
	}
	return out
}

// Lookup finds a preset by name, tolerating case and diacritics.
func Lookup(name string) (Preset, bool) {
	p, ok := byName[normalizeName(name)]
	return p, ok
}
