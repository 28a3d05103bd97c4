// Package hotkey detects global keyboard chords used to switch modes.
package hotkey

import (
	"fmt"
	"strings"
)

// Modifier is a bitmask of chord modifiers.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModShift
	ModAlt
	ModSuper
)

var modifierNames = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "ctrl"},
	{ModShift, "shift"},
	{ModAlt, "alt"},
	{ModSuper, "super"},
}

var modifierAliases = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"alt":     ModAlt,
	"super":   ModSuper,
	"meta":    ModSuper,
	"mod4":    ModSuper,
}

// Chord is a set of modifiers plus one non-modifier key.
type Chord struct {
	Mods Modifier
	Key  string
}

// ParseChord parses strings like "shift+ctrl+m". Modifier order does not matter.
func ParseChord(raw string) (Chord, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return Chord{}, fmt.Errorf("empty chord")
	}

	var chord Chord
	for _, part := range strings.Split(raw, "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Chord{}, fmt.Errorf("chord %q has an empty key", raw)
		}
		if mod, ok := modifierAliases[part]; ok {
			chord.Mods |= mod
			continue
		}
		if chord.Key != "" {
			return Chord{}, fmt.Errorf("chord %q has more than one key", raw)
		}
		if _, ok := keyCodes[part]; !ok {
			return Chord{}, fmt.Errorf("chord %q uses unknown key %q", raw, part)
		}
		chord.Key = part
	}
	if chord.Key == "" {
		return Chord{}, fmt.Errorf("chord %q has no key", raw)
	}
	if chord.Mods == 0 {
		return Chord{}, fmt.Errorf("chord %q needs at least one modifier", raw)
	}
	return chord, nil
}

// MustParseChord is ParseChord for compile-time constants.
func MustParseChord(raw string) Chord {
	chord, err := ParseChord(raw)
	if err != nil {
		panic(err)
	}
	return chord
}

// Equal reports whether two chords describe the same key combination.
func (c Chord) Equal(other Chord) bool {
	return c.Mods == other.Mods && c.Key == other.Key
}

// String renders the chord in canonical modifier order.
func (c Chord) String() string {
	parts := make([]string, 0, 5)
	for _, m := range modifierNames {
		if c.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}
