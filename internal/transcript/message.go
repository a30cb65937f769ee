package transcript

import (
	"fmt"
	"strings"
)

// Speaker identifies who a message is attributed to.
type Speaker string

const (
	SpeakerUserA  Speaker = "user_a"
	SpeakerUserB  Speaker = "user_b"
	SpeakerSystem Speaker = "system"
)

// Valid reports whether s is one of the known speakers.
func (s Speaker) Valid() bool {
	switch s {
	case SpeakerUserA, SpeakerUserB, SpeakerSystem:
		return true
	}
	return false
}

// Lang is the language a message is tagged with.
type Lang string

const (
	LangJA     Lang = "ja"
	LangZH     Lang = "zh"
	LangSystem Lang = "system"
)

// Valid reports whether l is one of the known languages.
func (l Lang) Valid() bool {
	switch l {
	case LangJA, LangZH, LangSystem:
		return true
	}
	return false
}

// Type classifies message content.
type Type string

const (
	TypeText   Type = "text"
	TypeSystem Type = "system"
	// TypeImage is reserved for non-text bubbles. Nothing emits it yet; it is
	// accepted on read so transcripts produced elsewhere still load.
	TypeImage Type = "image"
)

// Valid reports whether t is one of the known message types.
func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeSystem, TypeImage:
		return true
	}
	return false
}

// Message is one reconstructed chat line.
type Message struct {
	ID         string  `json:"id"`
	Timestamp  string  `json:"timestamp,omitempty"`
	Speaker    Speaker `json:"speaker"`
	Lang       Lang    `json:"lang"`
	Type       Type    `json:"type"`
	Text       string  `json:"text"`
	ReplyTo    *string `json:"reply_to,omitempty"`
	SourceFile string  `json:"source_file"`
	Confidence float64 `json:"confidence"`
	// Naturalness is set by the refiner; nil means the message was not scored.
	Naturalness *float64 `json:"naturalness,omitempty"`
	NeedsReview bool     `json:"needs_review,omitempty"`
}

// FormatID renders the sequential identifier for the n-th message of a run.
func FormatID(n int) string {
	return fmt.Sprintf("msg_%06d", n)
}

// IsSystem reports whether m is a system notice by type or by speaker.
func (m Message) IsSystem() bool {
	return m.Type == TypeSystem || m.Speaker == SpeakerSystem
}

// Score returns the naturalness score, treating an unscored message as fully
// natural.
func (m Message) Score() float64 {
	if m.Naturalness == nil {
		return 1.0
	}
	return *m.Naturalness
}

// Date returns the YYYY-MM-DD part of the timestamp, or "" when the message
// has no parseable timestamp.
func (m Message) Date() string {
	ts, ok := ParseTimestamp(m.Timestamp)
	if !ok {
		return ""
	}
	return ts.Format("2006-01-02")
}

// Validate checks enum values and the attribution invariant: a non-system
// message with text must belong to one of the two participants.
func (m Message) Validate() error {
	if !m.Speaker.Valid() {
		return fmt.Errorf("unknown speaker %q", m.Speaker)
	}
	if !m.Lang.Valid() {
		return fmt.Errorf("unknown lang %q", m.Lang)
	}
	if !m.Type.Valid() {
		return fmt.Errorf("unknown type %q", m.Type)
	}
	if m.Type != TypeSystem && strings.TrimSpace(m.Text) != "" && m.Speaker == SpeakerSystem {
		return fmt.Errorf("%s message attributed to system speaker", m.Type)
	}
	if m.Naturalness != nil && (*m.Naturalness < 0 || *m.Naturalness > 1) {
		return fmt.Errorf("naturalness %v outside [0,1]", *m.Naturalness)
	}
	return nil
}
