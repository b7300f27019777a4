package statement

import (
	"regexp"
	"strings"
)

var (
	percentRe    = regexp.MustCompile(`\d+%`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanDescription produces the human-readable description for a line by
// removing every occurrence of the date token, every matched amount token,
// and any "NN%" cashback annotation, then collapsing whitespace runs. Some
// statements print the same date twice on a line (post date and transaction
// date); both copies are stripped. An empty result means the line has no
// usable description and the caller should drop it.
func CleanDescription(line, dateToken string, amountTokens []string) string {
	desc := strings.ReplaceAll(line, dateToken, "")
	for _, tok := range amountTokens {
		desc = strings.Replace(desc, tok, "", 1)
	}
	desc = percentRe.ReplaceAllString(desc, "")
	desc = whitespaceRe.ReplaceAllString(desc, " ")
	return strings.TrimSpace(desc)
}
