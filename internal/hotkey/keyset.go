package hotkey

// Linux input-event key codes.
const (
	keyLeftCtrl   uint16 = 29
	keyRightCtrl  uint16 = 97
	keyLeftShift  uint16 = 42
	keyRightShift uint16 = 54
	keyLeftAlt    uint16 = 56
	keyRightAlt   uint16 = 100
	keyLeftMeta   uint16 = 125
	keyRightMeta  uint16 = 126
)

var modifierCodes = map[Modifier][2]uint16{
	ModCtrl:  {keyLeftCtrl, keyRightCtrl},
	ModShift: {keyLeftShift, keyRightShift},
	ModAlt:   {keyLeftAlt, keyRightAlt},
	ModSuper: {keyLeftMeta, keyRightMeta},
}

var keyCodes = map[string]uint16{
	"esc": 1, "1": 2, "2": 3, "3": 4, "4": 5, "5": 6, "6": 7, "7": 8, "8": 9, "9": 10, "0": 11,
	"tab": 15, "q": 16, "w": 17, "e": 18, "r": 19, "t": 20, "y": 21, "u": 22, "i": 23, "o": 24, "p": 25,
	"enter": 28, "a": 30, "s": 31, "d": 32, "f": 33, "g": 34, "h": 35, "j": 36, "k": 37, "l": 38,
	"z": 44, "x": 45, "c": 46, "v": 47, "b": 48, "n": 49, "m": 50, "space": 57,
	"f1": 59, "f2": 60, "f3": 61, "f4": 62, "f5": 63, "f6": 64, "f7": 65, "f8": 66, "f9": 67, "f10": 68,
	"f11": 87, "f12": 88,
}

// KeySet tracks which keys are currently held on the observed keyboards.
type KeySet struct {
	pressed map[uint16]bool
}

// NewKeySet returns an empty key set.
func NewKeySet() *KeySet {
	return &KeySet{pressed: make(map[uint16]bool)}
}

// Press records code as held.
func (k *KeySet) Press(code uint16) {
	k.pressed[code] = true
}

// Release records code as no longer held.
func (k *KeySet) Release(code uint16) {
	delete(k.pressed, code)
}

// Len returns the number of held keys.
func (k *KeySet) Len() int {
	return len(k.pressed)
}

// Matches reports whether exactly the modifiers of chord (either side) and
// its key are held. An extra held modifier rejects the match.
func (k *KeySet) Matches(chord Chord) bool {
	code, ok := keyCodes[chord.Key]
	if !ok || !k.pressed[code] {
		return false
	}
	for mod, codes := range modifierCodes {
		held := k.pressed[codes[0]] || k.pressed[codes[1]]
		if held != (chord.Mods&mod != 0) {
			return false
		}
	}
	return true
}
