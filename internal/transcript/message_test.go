package transcript

import (
	"strings"
	"testing"
)

func TestFormatID(t *testing.T) {
	if got := FormatID(1); got != "msg_000001" {
		t.Fatalf("FormatID(1) = %q", got)
	}
	if got := FormatID(1234567); got != "msg_1234567" {
		t.Fatalf("FormatID(1234567) = %q", got)
	}
}

func TestMessageValidate(t *testing.T) {
	score := 1.5
	tests := []struct {
		name    string
		msg     Message
		wantErr string
	}{
		{name: "text from user", msg: Message{Speaker: SpeakerUserA, Lang: LangJA, Type: TypeText, Text: "こんにちは"}},
		{name: "system notice", msg: Message{Speaker: SpeakerSystem, Lang: LangJA, Type: TypeSystem, Text: "消息已撤回"}},
		{name: "reserved image type", msg: Message{Speaker: SpeakerUserB, Lang: LangZH, Type: TypeImage}},
		{name: "unknown speaker", msg: Message{Speaker: "user_c", Lang: LangJA, Type: TypeText}, wantErr: "speaker"},
		{name: "unknown lang", msg: Message{Speaker: SpeakerUserA, Lang: "en", Type: TypeText}, wantErr: "lang"},
		{name: "unknown type", msg: Message{Speaker: SpeakerUserA, Lang: LangJA, Type: "sticker"}, wantErr: "type"},
		{name: "text attributed to system", msg: Message{Speaker: SpeakerSystem, Lang: LangJA, Type: TypeText, Text: "hi"}, wantErr: "system speaker"},
		{name: "naturalness out of range", msg: Message{Speaker: SpeakerUserA, Lang: LangJA, Type: TypeText, Naturalness: &score}, wantErr: "naturalness"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMessageScoreDefaultsToOne(t *testing.T) {
	var msg Message
	if msg.Score() != 1.0 {
		t.Fatalf("unscored message should count as 1.0, got %v", msg.Score())
	}
	v := 0.25
	msg.Naturalness = &v
	if msg.Score() != 0.25 {
		t.Fatalf("Score = %v", msg.Score())
	}
}

func TestDate(t *testing.T) {
	tests := map[string]string{
		"2025-06-18T20:03:00+09:00": "2025-06-18",
		"2025-06-18T23:59:00+09:00": "2025-06-18",
		"昨天 20:03":                  "",
		"":                          "",
	}
	for ts, want := range tests {
		if got := (Message{Timestamp: ts}).Date(); got != want {
			t.Errorf("Date(%q) = %q, want %q", ts, got, want)
		}
	}
}

func TestCanonicalTimestamp(t *testing.T) {
	if got := CanonicalTimestamp(2025, 6, 18, 20, 3); got != "2025-06-18T20:03:00+09:00" {
		t.Fatalf("CanonicalTimestamp = %q", got)
	}
}
