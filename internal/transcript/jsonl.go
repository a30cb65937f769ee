package transcript

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"scrollback/internal/fileutil"
	"scrollback/internal/logging"
)

const maxLineBytes = 4 << 20

// ReadStats summarises one JSONL read.
type ReadStats struct {
	Lines   int
	Decoded int
	Skipped int
}

// Decode reads messages from r. Blank lines are ignored; malformed lines and
// lines failing Validate are logged at warn and skipped.
func Decode(r io.Reader, logger *slog.Logger) ([]Message, ReadStats, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	var (
		out   []Message
		stats ReadStats
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		stats.Lines++

		var msg Message
		err := json.Unmarshal([]byte(line), &msg)
		if err == nil {
			err = msg.Validate()
		}
		if err != nil {
			stats.Skipped++
			logging.Warn(logger, "skipping malformed transcript line", "transcript_decode_failed",
				"fix or remove the line; the rest of the file is still processed",
				logging.Int("line", lineNo),
				logging.Error(err),
			)
			continue
		}
		out = append(out, msg)
		stats.Decoded++
	}
	if err := scanner.Err(); err != nil {
		return out, stats, fmt.Errorf("read transcript line %d: %w", lineNo+1, err)
	}
	return out, stats, nil
}

// ReadFile decodes the JSONL file at path.
func ReadFile(path string, logger *slog.Logger) ([]Message, ReadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ReadStats{}, err
	}
	defer f.Close()
	if logger != nil {
		logger = logger.With(logging.String("path", path))
	}
	return Decode(f, logger)
}

// Writer encodes messages one per line.
type Writer struct {
	enc *json.Encoder
}

// NewWriter returns a Writer that leaves non-ASCII and HTML characters unescaped.
func NewWriter(w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Writer{enc: enc}
}

// Write appends one message line.
func (w *Writer) Write(msg Message) error {
	return w.enc.Encode(msg)
}

// WriteAll appends every message in order.
func (w *Writer) WriteAll(msgs []Message) error {
	for i := range msgs {
		if err := w.Write(msgs[i]); err != nil {
			return fmt.Errorf("encode %s: %w", msgs[i].ID, err)
		}
	}
	return nil
}

// WriteFile atomically replaces path with msgs.
func WriteFile(path string, msgs []Message) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		buf := bufio.NewWriter(w)
		if err := NewWriter(buf).WriteAll(msgs); err != nil {
			return err
		}
		return buf.Flush()
	})
}

// ErrEmptyInput is returned when a stage input decodes to no messages at all.
var ErrEmptyInput = errors.New("transcript contains no messages")
