// Package matcher decides which rule, if any, applies to a process.
package matcher

import (
	"strings"
	"unicode"

	"reniced/config"
)

// Matcher evaluates an ordered rule set against process command lines. Rules
// are checked in declaration order and the first match wins, so a process
// never picks up more than one rule.
type Matcher struct {
	rules []config.Rule
}

func New(rules []config.Rule) *Matcher {
	return &Matcher{rules: rules}
}

// Match returns the first rule matching the command line and owner, or nil
// when nothing applies.
func (m *Matcher) Match(cmdline, owner string) *config.Rule {
	for i := range m.rules {
		if ruleMatches(&m.rules[i], cmdline, owner) {
			return &m.rules[i]
		}
	}
	return nil
}

func ruleMatches(rule *config.Rule, cmdline, owner string) bool {
	if rule.Owner != "" && rule.Owner != owner {
		return false
	}
	switch rule.Matcher.Type {
	case "simple":
		return matchSimple(cmdline, pattern(rule), rule.Matcher.StripPath)
	default:
		return false
	}
}

// pattern resolves the string a rule compares against: an explicit
// match_string verbatim, otherwise the binary path with a trailing space. The
// space keeps a bare path from matching commands it merely prefixes, and an
// explicit match_string without one deliberately keeps prefix semantics.
func pattern(rule *config.Rule) string {
	if rule.Matcher.MatchString != "" {
		return rule.Matcher.MatchString
	}
	return rule.Bin + " "
}

func matchSimple(cmdline, pattern string, stripPath bool) bool {
	if stripPath {
		cmdline = stripPathPrefix(cmdline, pattern)
	}
	return strings.HasPrefix(cmdline, pattern)
}

// stripPathPrefix drops everything before the first occurrence of the
// pattern, so "/opt/wrapper/java -jar app.jar" can still match a rule written
// against "java -jar app.jar". When the pattern does not occur at all the
// command passes through unchanged and the prefix check fails on its own.
func stripPathPrefix(cmdline, pattern string) string {
	idx := strings.Index(cmdline, pattern)
	if idx < 0 {
		return cmdline
	}
	return strings.TrimLeftFunc(cmdline[idx:], unicode.IsSpace)
}
