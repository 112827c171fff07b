package narrative

import (
	"regexp"
	"strings"
)

var (
	thinkBlock    = regexp.MustCompile(`(?is)<think>.*?</think>`)
	specialTokens = regexp.MustCompile(`<\|[A-Za-z0-9_]+\|>`)
	headerBlock   = regexp.MustCompile(`<\|start_header_id\|>[^<]*<\|end_header_id\|>`)
	literalTokens = strings.NewReplacer(
		"<s>", "",
		"</s>", "",
		"[INST]", "",
		"[/INST]", "",
		"<<SYS>>", "",
		"<</SYS>>", "",
	)
)

// StripControlTokens removes reasoning blocks and chat-template tokens that
// some models leak into their output.
func StripControlTokens(s string) string {
	s = thinkBlock.ReplaceAllString(s, "")
	// an unterminated reasoning block swallows the rest of the output
	if i := strings.Index(strings.ToLower(s), "<think>"); i >= 0 {
		s = s[:i]
	}
	s = headerBlock.ReplaceAllString(s, "")
	s = specialTokens.ReplaceAllString(s, "")
	s = literalTokens.Replace(s)
	return strings.TrimSpace(s)
}
