package judge

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"scrollback/internal/textutil"
	"scrollback/internal/transcript"
)

// NoScore is the sentinel used when no external opinion is available. It is
// distinct from a valid 0.0 score.
const NoScore = -1.0

// DefaultMaxChars caps the text sent to the model.
const DefaultMaxChars = 1000

// Judge scores how natural text reads in lang.
type Judge interface {
	Score(ctx context.Context, text string, lang transcript.Lang) (float64, error)
}

// Func adapts a function to Judge.
type Func func(ctx context.Context, text string, lang transcript.Lang) (float64, error)

// Score calls f.
func (f Func) Score(ctx context.Context, text string, lang transcript.Lang) (float64, error) {
	return f(ctx, text, lang)
}

// Completer issues one chat completion.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ErrNoScore is returned when the model reply holds no parseable score.
var ErrNoScore = errors.New("no score in reply")

// ErrEmptyText is returned when nothing is left after sanitising.
var ErrEmptyText = errors.New("empty text")

const systemPrompt = `あなたは日本語の校正者です。以下のテキストが自然な日本語かどうかを 0.0 から 1.0 のスコアで評価してください。
1.0 は完全に自然、0.0 は完全に意味不明またはノイズです。
スコアだけを数値で出力してください。説明は不要です。`

// Prompt returns the system and user prompts for text.
func Prompt(text string) (string, string) {
	return systemPrompt, "テキスト: " + text + "\nスコア:"
}

// Sanitize strips control characters and caps text at maxChars runes.
func Sanitize(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return textutil.Truncate(textutil.StripControl(text), maxChars)
}

var scorePattern = regexp.MustCompile(`0\.\d+|1\.0|0|1`)

// ParseScore extracts the first score-looking number from a model reply.
func ParseScore(reply string) (float64, error) {
	match := scorePattern.FindString(reply)
	if match == "" {
		return NoScore, fmt.Errorf("%w: %q", ErrNoScore, truncateReply(reply))
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return NoScore, fmt.Errorf("%w: %v", ErrNoScore, err)
	}
	return score, nil
}

func truncateReply(reply string) string {
	reply = strings.TrimSpace(reply)
	return textutil.Truncate(reply, 80)
}

// CompletionJudge scores text by prompting a chat model.
type CompletionJudge struct {
	name      string
	completer Completer
	maxChars  int
}

// NewCompletionJudge wraps completer. name identifies the backend in logs.
func NewCompletionJudge(name string, completer Completer, maxChars int) *CompletionJudge {
	return &CompletionJudge{name: name, completer: completer, maxChars: maxChars}
}

// Name returns the backend name.
func (j *CompletionJudge) Name() string {
	return j.name
}

// Score prompts the model and parses its reply. lang is accepted for
// interface symmetry; the prompt is Japanese-only.
func (j *CompletionJudge) Score(ctx context.Context, text string, _ transcript.Lang) (float64, error) {
	clean := Sanitize(text, j.maxChars)
	if strings.TrimSpace(clean) == "" {
		return NoScore, ErrEmptyText
	}
	system, user := Prompt(clean)
	reply, err := j.completer.Complete(ctx, system, user)
	if err != nil {
		return NoScore, fmt.Errorf("%s judge: %w", j.name, err)
	}
	return ParseScore(reply)
}

// Observer receives the outcome of each judge call.
type Observer func(elapsed time.Duration, err error)

// Instrument wraps j so observe is called after every Score.
func Instrument(j Judge, observe Observer) Judge {
	if j == nil || observe == nil {
		return j
	}
	return Func(func(ctx context.Context, text string, lang transcript.Lang) (float64, error) {
		start := time.Now()
		score, err := j.Score(ctx, text, lang)
		observe(time.Since(start), err)
		return score, err
	})
}
