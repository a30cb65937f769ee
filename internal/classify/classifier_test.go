package classify

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"math"
	"strings"
	"testing"

	"scrollback/internal/ocr"
	"scrollback/internal/services"
	"scrollback/internal/transcript"
)

const (
	testWidth  = 100
	testHeight = 400
)

func testImage(t *testing.T, name string) *ocr.Image {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, testWidth, testHeight))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := ocr.DecodeImage(name, buf.Bytes(), "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return img
}

// at builds a 20x10 block centred on (x, y).
func at(x, y float64, text string, conf float64) ocr.TextBlock {
	return ocr.TextBlock{
		Box: [4]ocr.Point{
			{X: x - 10, Y: y - 5}, {X: x + 10, Y: y - 5},
			{X: x + 10, Y: y + 5}, {X: x - 10, Y: y + 5},
		},
		Text:       text,
		Confidence: conf,
	}
}

func fixed(blocks ...ocr.TextBlock) ocr.Detector {
	return ocr.DetectorFunc(func(context.Context, *ocr.Image) ([]ocr.TextBlock, error) {
		out := make([]ocr.TextBlock, len(blocks))
		copy(out, blocks)
		return out, nil
	})
}

func TestClassifyTimestampThenRightBubble(t *testing.T) {
	c := New(fixed(
		at(50, 20, "2025-6-18 20:03", 0.99),
		at(80, 60, "吃饭了吗", 0.9),
	), fixed(), DefaultOptions(), nil)

	msgs, err := c.Classify(context.Background(), testImage(t, "a.png"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d: %+v", len(msgs), msgs)
	}
	got := msgs[0]
	want := transcript.Message{
		ID:         "msg_000001",
		Timestamp:  "2025-06-18T20:03:00+09:00",
		Speaker:    transcript.SpeakerUserA,
		Lang:       transcript.LangJA,
		Type:       transcript.TypeText,
		Text:       "吃饭了吗",
		SourceFile: "a.png",
		Confidence: 0.9,
	}
	if got != want {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestClassifyRules(t *testing.T) {
	tests := []struct {
		name    string
		block   ocr.TextBlock
		speaker transcript.Speaker
		lang    transcript.Lang
		typ     transcript.Type
		conf    float64
	}{
		{name: "system notice inside band", block: at(70, 50, "对方撤回了一条消息", 0.9), speaker: transcript.SpeakerSystem, lang: transcript.LangJA, typ: transcript.TypeSystem, conf: 0.9},
		{name: "centred unknown text is discounted", block: at(55, 50, "???", 0.5), speaker: transcript.SpeakerSystem, lang: transcript.LangJA, typ: transcript.TypeSystem, conf: 0.4},
		{name: "left bubble", block: at(20, 50, "你好吗", 0.8), speaker: transcript.SpeakerUserB, lang: transcript.LangZH, typ: transcript.TypeText, conf: 0.8},
		{name: "left bubble with kana", block: at(20, 50, "ありがとう", 0.8), speaker: transcript.SpeakerUserB, lang: transcript.LangJA, typ: transcript.TypeText, conf: 0.8},
		{name: "off-centre timestamp text is a bubble", block: at(90, 50, "昨天 20:03", 0.7), speaker: transcript.SpeakerUserA, lang: transcript.LangJA, typ: transcript.TypeText, conf: 0.7},
		{name: "system notice outside band", block: at(10, 50, "消息已撤回", 0.6), speaker: transcript.SpeakerUserB, lang: transcript.LangZH, typ: transcript.TypeText, conf: 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(fixed(tt.block), nil, DefaultOptions(), nil)
			msgs, err := c.Classify(context.Background(), testImage(t, "a.png"))
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}
			if len(msgs) != 1 {
				t.Fatalf("expected 1 message, got %d", len(msgs))
			}
			m := msgs[0]
			if m.Speaker != tt.speaker || m.Lang != tt.lang || m.Type != tt.typ {
				t.Fatalf("got speaker=%s lang=%s type=%s", m.Speaker, m.Lang, m.Type)
			}
			if math.Abs(m.Confidence-tt.conf) > 1e-9 {
				t.Fatalf("confidence = %v, want %v", m.Confidence, tt.conf)
			}
			if err := m.Validate(); err != nil {
				t.Fatalf("emitted invalid message: %v", err)
			}
		})
	}
}

func TestClassifyRawTimestampPassesThrough(t *testing.T) {
	c := New(fixed(at(50, 10, "昨天 20:03", 0.9), at(20, 40, "好", 0.9)), nil, DefaultOptions(), nil)
	msgs, err := c.Classify(context.Background(), testImage(t, "a.png"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Timestamp != "昨天 20:03" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestClassifyOrdersByVerticalCentre(t *testing.T) {
	c := New(fixed(
		at(20, 300, "third", 0.9),
		at(20, 100, "first", 0.9),
		at(20, 200, "second", 0.9),
	), nil, DefaultOptions(), nil)
	msgs, err := c.Classify(context.Background(), testImage(t, "a.png"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].Text != want || msgs[i].ID != transcript.FormatID(i+1) {
			t.Fatalf("message %d = %+v", i, msgs[i])
		}
	}
}

func TestClassifyRerecognizesRightSide(t *testing.T) {
	var gotCrop *ocr.Image
	secondary := ocr.DetectorFunc(func(_ context.Context, img *ocr.Image) ([]ocr.TextBlock, error) {
		gotCrop = img
		return []ocr.TextBlock{{Text: "こんにち", Confidence: 0.8}, {Text: "は", Confidence: 0.6}}, nil
	})
	c := New(fixed(at(80, 100, "乙んにちは", 0.5)), secondary, DefaultOptions(), nil)
	msgs, err := c.Classify(context.Background(), testImage(t, "a.png"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if msgs[0].Text != "こんにちは" || math.Abs(msgs[0].Confidence-0.7) > 1e-9 {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}
	// Block spans x 70..90, y 95..105; a 10px margin clamps at the right edge.
	if gotCrop == nil || gotCrop.Width != 40 || gotCrop.Height != 30 {
		t.Fatalf("unexpected crop: %+v", gotCrop)
	}
}

func TestClassifyRerecognitionFailureKeepsFirstPass(t *testing.T) {
	secondary := ocr.DetectorFunc(func(context.Context, *ocr.Image) ([]ocr.TextBlock, error) {
		return nil, errors.New("model crashed")
	})
	c := New(fixed(at(80, 100, "はい", 0.5)), secondary, DefaultOptions(), nil)
	msgs, err := c.Classify(context.Background(), testImage(t, "a.png"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if msgs[0].Text != "はい" || msgs[0].Confidence != 0.5 {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}
}

func TestClassifyRerecognitionWarningCarriesRunContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	secondary := ocr.DetectorFunc(func(context.Context, *ocr.Image) ([]ocr.TextBlock, error) {
		return nil, errors.New("model crashed")
	})
	c := New(fixed(at(80, 100, "はい", 0.5)), secondary, DefaultOptions(), logger)

	ctx := services.WithStage(services.WithRunID(context.Background(), "run-42"), "extract")
	if _, err := c.Classify(ctx, testImage(t, "a.png")); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"event_type":"rerecognize_failed"`, `"run_id":"run-42"`, `"stage":"extract"`, `"image":"a.png"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("warning missing %s:\n%s", want, out)
		}
	}
}

func TestAnalyzeReportsDetectedBlocks(t *testing.T) {
	tests := []struct {
		name     string
		primary  ocr.Detector
		blocks   int
		messages int
		carried  string
	}{
		{name: "detection error", primary: ocr.DetectorFunc(func(context.Context, *ocr.Image) ([]ocr.TextBlock, error) {
			return nil, errors.New("service unavailable")
		})},
		{name: "no text", primary: fixed()},
		{name: "timestamp only", primary: fixed(at(50, 20, "2025-6-18 20:03", 0.99)), blocks: 1, carried: "2025-06-18T20:03:00+09:00"},
		{name: "timestamp and bubble", primary: fixed(at(50, 20, "2025-6-18 20:03", 0.99), at(20, 60, "好", 0.9)), blocks: 2, messages: 1, carried: "2025-06-18T20:03:00+09:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.primary, nil, DefaultOptions(), nil)
			res, err := c.Analyze(context.Background(), testImage(t, "a.png"))
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			if res.Blocks != tt.blocks || len(res.Messages) != tt.messages {
				t.Fatalf("got %d blocks and %d messages, want %d and %d", res.Blocks, len(res.Messages), tt.blocks, tt.messages)
			}
			if got := c.Snapshot().CurrentTimestamp; got != tt.carried {
				t.Fatalf("carried timestamp = %q, want %q", got, tt.carried)
			}
		})
	}
}

func TestClassifyLeftSideSkipsRerecognition(t *testing.T) {
	called := false
	secondary := ocr.DetectorFunc(func(context.Context, *ocr.Image) ([]ocr.TextBlock, error) {
		called = true
		return nil, nil
	})
	c := New(fixed(at(20, 100, "你好", 0.5)), secondary, DefaultOptions(), nil)
	if _, err := c.Classify(context.Background(), testImage(t, "a.png")); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if called {
		t.Fatal("secondary pass should only run for the right-hand speaker")
	}
}

func TestClassifyStateCarriesAcrossImages(t *testing.T) {
	calls := 0
	primary := ocr.DetectorFunc(func(context.Context, *ocr.Image) ([]ocr.TextBlock, error) {
		calls++
		if calls == 1 {
			return []ocr.TextBlock{at(50, 10, "2025-6-18 20:03", 0.9), at(20, 50, "一", 0.9)}, nil
		}
		return []ocr.TextBlock{at(20, 50, "二", 0.9)}, nil
	})
	c := New(primary, nil, DefaultOptions(), nil)
	if _, err := c.Classify(context.Background(), testImage(t, "a.png")); err != nil {
		t.Fatalf("Classify a: %v", err)
	}
	msgs, err := c.Classify(context.Background(), testImage(t, "b.png"))
	if err != nil {
		t.Fatalf("Classify b: %v", err)
	}
	if msgs[0].ID != "msg_000002" || msgs[0].Timestamp != "2025-06-18T20:03:00+09:00" || msgs[0].SourceFile != "b.png" {
		t.Fatalf("state not carried: %+v", msgs[0])
	}
	if got := c.Snapshot(); got.Seq != 2 {
		t.Fatalf("Snapshot = %+v", got)
	}
}

func TestClassifyRestoreSeedsState(t *testing.T) {
	c := New(fixed(at(20, 50, "好", 0.9)), nil, DefaultOptions(), nil)
	c.Restore(State{CurrentTimestamp: "2025-01-02T03:04:00+09:00", Seq: 41})
	msgs, err := c.Classify(context.Background(), testImage(t, "a.png"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if msgs[0].ID != "msg_000042" || msgs[0].Timestamp != "2025-01-02T03:04:00+09:00" {
		t.Fatalf("unexpected message: %+v", msgs[0])
	}
}

func TestClassifyDetectionFailureYieldsNothing(t *testing.T) {
	tests := map[string]ocr.Detector{
		"error": ocr.DetectorFunc(func(context.Context, *ocr.Image) ([]ocr.TextBlock, error) {
			return nil, errors.New("service unavailable")
		}),
		"empty": fixed(),
	}
	for name, det := range tests {
		t.Run(name, func(t *testing.T) {
			c := New(det, nil, DefaultOptions(), nil)
			msgs, err := c.Classify(context.Background(), testImage(t, "a.png"))
			if err != nil || len(msgs) != 0 {
				t.Fatalf("expected no messages and no error, got %v, %v", msgs, err)
			}
			if c.Snapshot() != (State{}) {
				t.Fatalf("state changed: %+v", c.Snapshot())
			}
		})
	}
}

func TestClassifyCancelledRestoresState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	// The right-hand bubble comes last and its secondary pass cancels the run.
	primary := fixed(at(50, 10, "2025-6-18 20:03", 0.9), at(20, 50, "好", 0.9), at(80, 90, "はい", 0.9))
	secondary := ocr.DetectorFunc(func(context.Context, *ocr.Image) ([]ocr.TextBlock, error) {
		cancel()
		return nil, context.Canceled
	})
	c := New(primary, secondary, DefaultOptions(), nil)
	c.Restore(State{Seq: 5})

	msgs, err := c.Classify(ctx, testImage(t, "a.png"))
	if !errors.Is(err, context.Canceled) || msgs != nil {
		t.Fatalf("expected cancellation, got %v, %v", msgs, err)
	}
	if c.Snapshot() != (State{Seq: 5}) {
		t.Fatalf("state not restored: %+v", c.Snapshot())
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := map[string]string{
		"2025-6-18 20:03":  "2025-06-18T20:03:00+09:00",
		"2025-12-01  9:05": "2025-12-01T09:05:00+09:00",
		"2025年6月18日 20:03": "2025年6月18日 20:03",
		"星期三 20:03":        "星期三 20:03",
	}
	for in, want := range tests {
		if got := ParseTimestamp(in); got != want {
			t.Errorf("ParseTimestamp(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsTimestampText(t *testing.T) {
	for _, text := range []string{"2025-6-18 20:03", "2025年6月18日 20:03", "昨天 8:15", "今天 20:03", "星期日 20:03"} {
		if !IsTimestampText(text) {
			t.Errorf("expected %q to match", text)
		}
	}
	for _, text := range []string{"20:03", "星期八 20:03", "明天 20:03", "hello"} {
		if IsTimestampText(text) {
			t.Errorf("expected %q not to match", text)
		}
	}
}
