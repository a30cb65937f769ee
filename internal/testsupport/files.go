package testsupport

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"scrollback/internal/transcript"
)

// WritePNG writes a blank w x h PNG screenshot to dir/name and returns its path.
func WritePNG(t testing.TB, dir, name string, w, h int) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 0xED, G: 0xED, B: 0xED, A: 0xFF})
		}
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return path
}

// WriteJSONL writes msgs as a transcript at path.
func WriteJSONL(t testing.TB, path string, msgs ...transcript.Message) {
	t.Helper()

	if err := transcript.WriteFile(path, msgs); err != nil {
		t.Fatalf("write transcript %s: %v", path, err)
	}
}

// ReadJSONL decodes the transcript at path, failing on malformed lines.
func ReadJSONL(t testing.TB, path string) []transcript.Message {
	t.Helper()

	msgs, stats, err := transcript.ReadFile(path, nil)
	if err != nil {
		t.Fatalf("read transcript %s: %v", path, err)
	}
	if stats.Skipped != 0 {
		t.Fatalf("transcript %s has %d malformed lines", path, stats.Skipped)
	}
	return msgs
}

// Text builds a text message with the given id, speaker and text.
func Text(id string, speaker transcript.Speaker, text string) transcript.Message {
	lang := transcript.LangZH
	if speaker == transcript.SpeakerUserA {
		lang = transcript.LangJA
	}
	return transcript.Message{
		ID:         id,
		Speaker:    speaker,
		Lang:       lang,
		Type:       transcript.TypeText,
		Text:       text,
		SourceFile: "shot.png",
		Confidence: 0.9,
	}
}
