package markup

import (
	"regexp"
	"strings"
)

var (
	blankLineRun = regexp.MustCompile(`\n\s*\n`)
	spaceRun     = regexp.MustCompile(` +`)
)

// assemble joins the walk's fragments and squeezes the whitespace the walk
// leaves behind: runs of blank lines become one blank line, runs of spaces
// become one space, and the ends are trimmed. Running assemble over its own
// output changes nothing.
func assemble(fragments []string) string {
	s := strings.Join(fragments, " ")
	s = blankLineRun.ReplaceAllString(s, "\n\n")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
