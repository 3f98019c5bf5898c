package subtitles

import "strings"

// Paragraphs splits a raw transcript after every '.', '!' or '?' (the mark
// stays with the text before it) and joins the trimmed sentences with a
// blank line. A mark with no text of its own, as in "..." or "?!", joins the
// previous sentence. Trailing text without a mark is kept as the last
// sentence.
func Paragraphs(text string) string {
	var sentences []string
	var current strings.Builder
	flush := func() {
		s := strings.TrimSpace(current.String())
		current.Reset()
		switch {
		case s == "":
		case strings.Trim(s, ".!?") == "" && len(sentences) > 0:
			sentences[len(sentences)-1] += s
		default:
			sentences = append(sentences, s)
		}
	}
	for _, r := range text {
		current.WriteRune(r)
		if isSentenceEnd(r) {
			flush()
		}
	}
	flush()
	return strings.Join(sentences, "\n\n")
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
