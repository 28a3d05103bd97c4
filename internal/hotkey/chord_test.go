package hotkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseChord(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Chord
		wantErr string
	}{
		{name: "shift ctrl m", input: "shift+ctrl+m", want: Chord{Mods: ModShift | ModCtrl, Key: "m"}},
		{name: "order insensitive", input: "Ctrl + Shift + L", want: Chord{Mods: ModShift | ModCtrl, Key: "l"}},
		{name: "aliases", input: "control+meta+f5", want: Chord{Mods: ModCtrl | ModSuper, Key: "f5"}},
		{name: "empty", input: " ", wantErr: "empty chord"},
		{name: "trailing plus", input: "ctrl+", wantErr: "empty key"},
		{name: "two keys", input: "ctrl+a+b", wantErr: "more than one key"},
		{name: "unknown key", input: "ctrl+pause", wantErr: "unknown key"},
		{name: "no key", input: "ctrl+shift", wantErr: "no key"},
		{name: "no modifier", input: "m", wantErr: "modifier"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseChord(tc.input)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestChordStringIsCanonical(t *testing.T) {
	require.Equal(t, "ctrl+shift+m", MustParseChord("shift+ctrl+m").String())
	require.True(t, MustParseChord("shift+ctrl+m").Equal(MustParseChord("ctrl+shift+m")))
	require.False(t, MustParseChord("shift+ctrl+m").Equal(MustParseChord("shift+ctrl+l")))
	require.Panics(t, func() { MustParseChord("nope") })
}

func TestKeySetMatchesEitherModifierSide(t *testing.T) {
	chord := MustParseChord("shift+ctrl+m")
	keys := NewKeySet()

	keys.Press(keyRightShift)
	keys.Press(keyLeftCtrl)
	require.False(t, keys.Matches(chord))

	keys.Press(keyCodes["m"])
	require.True(t, keys.Matches(chord))

	keys.Release(keyRightShift)
	require.False(t, keys.Matches(chord))
	require.Equal(t, 2, keys.Len())
}

func TestKeySetRejectsExtraModifiers(t *testing.T) {
	chord := MustParseChord("shift+ctrl+m")
	keys := NewKeySet()
	keys.Press(keyLeftShift)
	keys.Press(keyLeftCtrl)
	keys.Press(keyCodes["m"])
	require.True(t, keys.Matches(chord))

	keys.Press(keyRightAlt)
	require.False(t, keys.Matches(chord))

	keys.Release(keyRightAlt)
	keys.Press(keyLeftMeta)
	require.False(t, keys.Matches(chord))

	keys.Release(keyLeftMeta)
	require.True(t, keys.Matches(chord))
}
