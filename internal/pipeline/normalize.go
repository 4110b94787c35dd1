package pipeline

import (
	"strings"
	"unicode"

	"driveinvoice/internal/util"
)

// NormalizeText cleans raw extracted PDF text for the classifier and
// extractor: consistent line breaks, control characters stripped, horizontal
// whitespace collapsed per line, runs of blank lines squeezed to one.
func NormalizeText(raw string) string {
	if raw == "" {
		return ""
	}

	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, " ", " ")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = stripControl(line)
		line = util.CollapseSpaces(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

func stripControl(line string) string {
	var b strings.Builder
	for _, r := range line {
		if r == '\t' {
			b.WriteRune(' ')
			continue
		}
		if unicode.IsControl(r) || r == '�' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
