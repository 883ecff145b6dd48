// Package hotkey defines the contract between profiles and an external
// global hotkey binder, plus the combo syntax profiles validate before
// asking for a binding.
package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors
var (
	ErrEmptyCombo   = errors.New("empty key combo")
	ErrInvalidCombo = errors.New("invalid key combo")
)

// Combo is a parsed key combination in canonical form: sorted lowercase
// modifiers followed by a single key.
type Combo struct {
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
	Key   string
}

// String renders the canonical spec, e.g. "ctrl+shift+p".
func (c Combo) String() string {
	var parts []string
	if c.Ctrl {
		parts = append(parts, "ctrl")
	}
	if c.Alt {
		parts = append(parts, "alt")
	}
	if c.Shift {
		parts = append(parts, "shift")
	}
	if c.Meta {
		parts = append(parts, "meta")
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}

// namedKeys are the multi-character key names accepted beside single
// characters.
var namedKeys = map[string]bool{
	"enter": true, "escape": true, "tab": true, "backspace": true,
	"delete": true, "insert": true, "space": true,
	"up": true, "down": true, "left": true, "right": true,
	"home": true, "end": true, "pageup": true, "pagedown": true,
	"f1": true, "f2": true, "f3": true, "f4": true, "f5": true, "f6": true,
	"f7": true, "f8": true, "f9": true, "f10": true, "f11": true, "f12": true,
}

// keyAliases maps accepted spellings to canonical key names.
var keyAliases = map[string]string{
	"esc": "escape", "return": "enter", "cr": "enter",
	"bs": "backspace", "del": "delete", "ins": "insert",
	"pgup": "pageup", "pgdn": "pagedown",
}

// Parse parses a "mod+mod+key" combo specification.
//
// Modifiers: ctrl, alt, shift, meta (aliases: cmd, super, control, option).
// The key is a single character or a named key (enter, escape, f1, ...).
// Matching is case-insensitive; the result is canonical.
func Parse(spec string) (Combo, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Combo{}, ErrEmptyCombo
	}

	parts := strings.Split(spec, "+")
	var combo Combo

	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "ctrl", "control":
			if combo.Ctrl {
				return Combo{}, fmt.Errorf("%w: duplicate modifier in %q", ErrInvalidCombo, spec)
			}
			combo.Ctrl = true
		case "alt", "option":
			if combo.Alt {
				return Combo{}, fmt.Errorf("%w: duplicate modifier in %q", ErrInvalidCombo, spec)
			}
			combo.Alt = true
		case "shift":
			if combo.Shift {
				return Combo{}, fmt.Errorf("%w: duplicate modifier in %q", ErrInvalidCombo, spec)
			}
			combo.Shift = true
		case "meta", "cmd", "super":
			if combo.Meta {
				return Combo{}, fmt.Errorf("%w: duplicate modifier in %q", ErrInvalidCombo, spec)
			}
			combo.Meta = true
		default:
			return Combo{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidCombo, p)
		}
	}

	key := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	if alias, ok := keyAliases[key]; ok {
		key = alias
	}
	switch {
	case key == "":
		return Combo{}, fmt.Errorf("%w: missing key in %q", ErrInvalidCombo, spec)
	case len([]rune(key)) == 1, namedKeys[key]:
		combo.Key = key
	default:
		return Combo{}, fmt.Errorf("%w: unknown key %q", ErrInvalidCombo, key)
	}

	return combo, nil
}

// Valid reports whether spec is a parseable combo.
func Valid(spec string) bool {
	_, err := Parse(spec)
	return err == nil
}

// Normalize parses and re-renders spec in canonical form.
func Normalize(spec string) (string, error) {
	combo, err := Parse(spec)
	if err != nil {
		return "", err
	}
	return combo.String(), nil
}
