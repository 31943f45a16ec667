package cart

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SelectedOption is one chosen option of a modifier, captured at the moment
// the item is added to the cart.
type SelectedOption struct {
	ID         string  `json:"id"`
	Name       string  `json:"name,omitempty"`
	ExtraPrice float64 `json:"extra_price,omitempty"`
}

// SelectedModifiers maps a modifier id to its chosen options. The mapping is
// immutable once attached to a line item; changing a selection is modeled as
// remove-then-add.
type SelectedModifiers map[string][]SelectedOption

// keyDelimiter joins the segments of a cart key.
const keyDelimiter = "-"

// ParseSelectedModifiers validates a raw modifier payload at the system
// boundary and returns the typed form. Accepted shape: an object mapping
// modifier id to an array of option objects, each carrying at least an id.
// nil, JSON null and the empty object all yield an empty selection.
func ParseSelectedModifiers(raw json.RawMessage) (SelectedModifiers, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var decoded map[string][]SelectedOption
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("invalid modifiers payload: %w", err)
	}
	mods := make(SelectedModifiers, len(decoded))
	for modifierID, options := range decoded {
		if modifierID == "" {
			return nil, fmt.Errorf("invalid modifiers payload: empty modifier id")
		}
		for _, opt := range options {
			if opt.ID == "" {
				return nil, fmt.Errorf("invalid modifiers payload: option without id in modifier %q", modifierID)
			}
		}
		mods[modifierID] = options
	}
	if len(mods) == 0 {
		return nil, nil
	}
	return mods, nil
}

// IsEmpty reports whether no option is selected at all.
func (m SelectedModifiers) IsEmpty() bool {
	for _, options := range m {
		if len(options) > 0 {
			return false
		}
	}
	return true
}

// Normalize recursively canonicalizes a JSON-like value so that two
// structurally equal selections serialize identically:
//   - objects re-emit their keys in lexicographic order
//   - arrays of objects carrying an "id" field are sorted by that id
//   - other arrays keep their order, with each element normalized
//   - primitives pass through unchanged
func Normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		normalized := make(map[string]interface{}, len(v))
		for key, element := range v {
			normalized[key] = Normalize(element)
		}
		return normalized
	case []interface{}:
		normalized := make([]interface{}, len(v))
		for i, element := range v {
			normalized[i] = Normalize(element)
		}
		if allHaveID(normalized) {
			sort.SliceStable(normalized, func(i, j int) bool {
				return idOf(normalized[i]) < idOf(normalized[j])
			})
		}
		return normalized
	default:
		return value
	}
}

func allHaveID(elements []interface{}) bool {
	if len(elements) == 0 {
		return false
	}
	for _, element := range elements {
		obj, ok := element.(map[string]interface{})
		if !ok {
			return false
		}
		if _, ok := obj["id"]; !ok {
			return false
		}
	}
	return true
}

func idOf(element interface{}) string {
	obj := element.(map[string]interface{})
	return fmt.Sprintf("%v", obj["id"])
}

// Canonical returns the canonical serialization of the selected modifiers,
// or the empty string when nothing is selected. Modifier ids appear in
// lexicographic order and each option list is sorted by option id, so the
// result is independent of the order the user made the selections in.
func (m SelectedModifiers) Canonical() string {
	if m.IsEmpty() {
		return ""
	}
	compact := make(map[string][]SelectedOption, len(m))
	for modifierID, options := range m {
		if len(options) == 0 {
			continue
		}
		sorted := make([]SelectedOption, len(options))
		copy(sorted, options)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
		compact[modifierID] = sorted
	}
	// encoding/json emits map keys in sorted order, which gives us the
	// lexicographic key ordering for free.
	data, err := json.Marshal(compact)
	if err != nil {
		// A map of strings to option structs cannot fail to marshal.
		panic(fmt.Sprintf("cart: marshal modifiers: %v", err))
	}
	return string(data)
}

// ParseCanonical decodes a canonical serialization back into the typed form.
// Used when reconciling pushed rows, which carry the canonical string.
func ParseCanonical(canonical string) (SelectedModifiers, error) {
	if canonical == "" {
		return nil, nil
	}
	return ParseSelectedModifiers(json.RawMessage(canonical))
}

// Key builds the stable cart key for a line item. The modifiers segment is
// omitted entirely when nothing is selected, so an unmodified item keys as
// "itemID-alias".
func Key(itemID string, modifiers SelectedModifiers, alias string) string {
	return KeyFromCanonical(itemID, modifiers.Canonical(), alias)
}

// KeyFromCanonical builds a cart key from an already-canonical modifiers
// string, as stored on persisted rows.
func KeyFromCanonical(itemID, canonical, alias string) string {
	if canonical == "" {
		return itemID + keyDelimiter + alias
	}
	return itemID + keyDelimiter + canonical + keyDelimiter + alias
}
