// Package conversation holds the ordered chat transcript shared by every mode.
package conversation

import (
	"encoding/base64"
	"strings"
)

// Role identifies the author of one turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Markers recognized inside a typed line.
const (
	MarkerImage  = "#image"
	MarkerSelfie = "#selfie"
)

// Image is a captured, already-optimized picture attached to a user turn.
type Image struct {
	MIMEType string
	Data     []byte
	Path     string
}

// DataURL renders the image as an inline base64 data URL.
func (i Image) DataURL() string {
	mime := i.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Turn is one message in the transcript.
type Turn struct {
	Role  Role
	Text  string
	Image *Image
}

// HasImage reports whether the turn still carries an image payload.
func (t Turn) HasImage() bool {
	return t.Image != nil
}

// StripMarkers removes capture markers from a typed line.
func StripMarkers(text string) string {
	text = strings.ReplaceAll(text, MarkerImage, "")
	text = strings.ReplaceAll(text, MarkerSelfie, "")
	return strings.TrimSpace(text)
}

// WantsSelfie reports whether the line requests a webcam capture.
func WantsSelfie(text string) bool {
	return strings.Contains(text, MarkerSelfie)
}

// WantsScreenshot reports whether the line requests a screen capture.
func WantsScreenshot(text string) bool {
	return strings.Contains(text, MarkerImage)
}
