package plugin

import (
	"regexp"
	"strings"
)

var (
	headerRegex   = regexp.MustCompile(`^(\w+)(?:\(([^)]*)\))?(!)?: (.+)$`)
	breakingRegex = regexp.MustCompile(`(?m)^BREAKING[ -]CHANGE: ?(.*)$`)
	revertRegex   = regexp.MustCompile(`^[Rr]evert:? "?(.+?)"?$`)
)

// ConventionalCommit is a parsed conventional-commit message.
type ConventionalCommit struct {
	Type     string
	Scope    string
	Subject  string
	Breaking bool
	// BreakingNote is the text of the BREAKING CHANGE footer, if any.
	BreakingNote string
	Revert       bool
}

// ParseConventionalCommit parses the header and footers of msg. A header
// that does not follow the convention yields an empty Type.
func ParseConventionalCommit(msg string) ConventionalCommit {
	header, body, _ := strings.Cut(strings.TrimSpace(msg), "\n")
	var cc ConventionalCommit
	if m := headerRegex.FindStringSubmatch(strings.TrimSpace(header)); m != nil {
		cc.Type = strings.ToLower(m[1])
		cc.Scope = m[2]
		cc.Breaking = m[3] == "!"
		cc.Subject = m[4]
	} else {
		cc.Subject = strings.TrimSpace(header)
		if revertRegex.MatchString(cc.Subject) {
			cc.Revert = true
			cc.Type = "revert"
		}
	}
	if cc.Type == "revert" {
		cc.Revert = true
	}
	if m := breakingRegex.FindStringSubmatch(body); m != nil {
		cc.Breaking = true
		cc.BreakingNote = strings.TrimSpace(m[1])
	}
	if cc.Breaking && cc.BreakingNote == "" {
		cc.BreakingNote = cc.Subject
	}
	return cc
}
