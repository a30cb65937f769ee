// Package report renders the messages flagged for review as Markdown, and
// optionally as HTML, grouped by conversation date.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"scrollback/internal/transcript"
)

// Report is the set of flagged messages grouped by date.
type Report struct {
	Title   string
	Total   int
	Flagged int
	Groups  []transcript.DateBucket
}

// Build selects the needs_review messages of msgs.
func Build(title string, msgs []transcript.Message) Report {
	var flagged []transcript.Message
	for _, msg := range msgs {
		if msg.NeedsReview {
			flagged = append(flagged, msg)
		}
	}
	return Report{
		Title:   title,
		Total:   len(msgs),
		Flagged: len(flagged),
		Groups:  transcript.SplitByDate(flagged),
	}
}

// WriteMarkdown writes the report as a Markdown document with one table per
// date.
func WriteMarkdown(w io.Writer, rep Report) error {
	var b strings.Builder
	title := rep.Title
	if title == "" {
		title = "Review"
	}
	fmt.Fprintf(&b, "# %s\n\n", escapeInline(title))
	if rep.Flagged == 0 {
		fmt.Fprintf(&b, "No messages need review (%s checked).\n", humanize.Comma(int64(rep.Total)))
		_, err := io.WriteString(w, b.String())
		return err
	}
	fmt.Fprintf(&b, "%s of %s messages need review.\n",
		humanize.Comma(int64(rep.Flagged)), humanize.Comma(int64(rep.Total)))

	for _, group := range rep.Groups {
		heading := group.Date
		if heading == transcript.NoTimestampBucket {
			heading = "Without timestamp"
		}
		fmt.Fprintf(&b, "\n## %s\n\n", heading)
		b.WriteString("| ID | Speaker | Score | Source | Text |\n")
		b.WriteString("|---|---|---:|---|---|\n")
		for _, msg := range group.Messages {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				msg.ID, msg.Speaker, score(msg), escapeCell(msg.SourceFile), escapeCell(msg.Text))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderHTML converts Markdown produced by WriteMarkdown into a standalone
// HTML page. Raw HTML in message text is escaped.
func RenderHTML(w io.Writer, title string, markdown []byte) error {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert(markdown, &body); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err := fmt.Fprintf(w, htmlPage, htmlEscaper.Replace(title), body.String())
	return err
}

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: sans-serif; max-width: 60em; margin: 2em auto; }
table { border-collapse: collapse; width: 100%%; }
th, td { border: 1px solid #ccc; padding: 0.3em 0.6em; text-align: left; }
</style>
</head>
<body>
%s</body>
</html>
`

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func score(msg transcript.Message) string {
	if msg.Naturalness == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *msg.Naturalness)
}

var cellEscaper = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"\r\n", " ",
	"\n", " ",
	"<", "&lt;",
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
)

func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}

func escapeInline(s string) string {
	return strings.ReplaceAll(cellEscaper.Replace(s), `\|`, "|")
}
