package conversation

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrSystemTurn rejects attempts to add or remove the system turn after creation.
	ErrSystemTurn = errors.New("system turn is fixed at creation")
	// ErrImageRole rejects image payloads on non-user turns.
	ErrImageRole = errors.New("only user turns may carry an image")
	// ErrNoUserTurn indicates an image was attached while the newest turn is not a user turn.
	ErrNoUserTurn = errors.New("newest turn is not a user turn")
)

const imagePreviewLen = 50

// Store is the ordered transcript sent verbatim as the completion context.
//
// A Store is owned by exactly one running mode at a time and is handed to the
// next mode by pointer, so it carries no lock.
type Store struct {
	turns []Turn
}

// NewStore creates a transcript whose first and only fixed turn is the system prompt.
func NewStore(systemPrompt string) *Store {
	return &Store{turns: []Turn{{Role: RoleSystem, Text: systemPrompt}}}
}

// Append adds a user or assistant turn. A new user turn strips image payloads
// from every older turn so only the newest user turn may keep one.
func (s *Store) Append(turn Turn) error {
	switch turn.Role {
	case RoleSystem:
		return ErrSystemTurn
	case RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("unknown role %q", turn.Role)
	}
	if turn.HasImage() && turn.Role != RoleUser {
		return ErrImageRole
	}

	if turn.Role == RoleUser {
		s.stripImages(-1)
	}
	s.turns = append(s.turns, turn)
	return nil
}

// AttachImage places img on the newest turn, which must be a user turn, and
// removes capture markers from its text.
func (s *Store) AttachImage(img Image) error {
	last := len(s.turns) - 1
	if last <= 0 || s.turns[last].Role != RoleUser {
		return ErrNoUserTurn
	}
	s.stripImages(last)
	s.turns[last].Text = StripMarkers(s.turns[last].Text)
	s.turns[last].Image = &img
	return nil
}

// RemoveLast drops the newest non-system turn and returns it.
func (s *Store) RemoveLast() (Turn, bool) {
	if len(s.turns) <= 1 {
		return Turn{}, false
	}
	last := s.turns[len(s.turns)-1]
	s.turns = s.turns[:len(s.turns)-1]
	return last, true
}

// Turns returns a snapshot of the transcript in chronological order.
func (s *Store) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns including the system turn.
func (s *Store) Len() int {
	return len(s.turns)
}

// Last returns the newest turn.
func (s *Store) Last() Turn {
	return s.turns[len(s.turns)-1]
}

// System returns the fixed system turn.
func (s *Store) System() Turn {
	return s.turns[0]
}

// ImageCount returns how many turns currently carry an image payload.
func (s *Store) ImageCount() int {
	n := 0
	for _, turn := range s.turns {
		if turn.HasImage() {
			n++
		}
	}
	return n
}

// Transcript writes the chat history in a human-readable form.
func (s *Store) Transcript(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "\nChat History:"); err != nil {
		return err
	}
	for _, turn := range s.turns {
		var err error
		if turn.HasImage() {
			preview := turn.Image.DataURL()
			if len(preview) > imagePreviewLen {
				preview = preview[:imagePreviewLen]
			}
			_, err = fmt.Fprintf(w, "%s: %s [Image: %s...]\n", turn.Role, turn.Text, preview)
		} else {
			_, err = fmt.Fprintf(w, "%s: %s\n", turn.Role, turn.Text)
		}
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// stripImages clears image payloads on every turn except index keep.
func (s *Store) stripImages(keep int) {
	for i := range s.turns {
		if i == keep {
			continue
		}
		s.turns[i].Image = nil
	}
}
