// Package policy gates proposed agent commands against deny and allow
// pattern lists.
package policy

import (
	"fmt"
	"regexp"
)

// Denial codes reported by Evaluate.
const (
	CodeMissingCommand = "missing_command"
	CodeCommandDenied  = "command_denied"
	CodeNotAllowlisted = "command_not_allowlisted"
)

// Policy is the on-disk shape of a policy file. Patterns are regular
// expressions matched anywhere in the command text.
type Policy struct {
	Allow []string `json:"allow" yaml:"allow" toml:"allow"`
	Deny  []string `json:"deny" yaml:"deny" toml:"deny"`
}

// Denial explains why a command was refused.
type Denial struct {
	Code    string
	Pattern string
}

func (d *Denial) Error() string {
	if d.Pattern != "" {
		return fmt.Sprintf("%s (pattern %q)", d.Code, d.Pattern)
	}
	return d.Code
}

type rule struct {
	source string
	re     *regexp.Regexp
}

// Gate evaluates commands against a compiled Policy. A Gate is immutable and
// safe for concurrent use.
type Gate struct {
	deny  []rule
	allow []rule
}

// NewGate compiles p. Any pattern that fails to compile is an error.
func NewGate(p Policy) (*Gate, error) {
	deny, err := compile("deny", p.Deny)
	if err != nil {
		return nil, err
	}
	allow, err := compile("allow", p.Allow)
	if err != nil {
		return nil, err
	}
	return &Gate{deny: deny, allow: allow}, nil
}

func compile(list string, patterns []string) ([]rule, error) {
	rules := make([]rule, 0, len(patterns))
	for i, src := range patterns {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("%s[%d] %q: %w", list, i, src, err)
		}
		rules = append(rules, rule{source: src, re: re})
	}
	return rules, nil
}

// Evaluate returns nil when cmd may become an approval request, or a
// *Denial. Deny rules always win; in strict mode cmd must also match an
// allow rule.
func (g *Gate) Evaluate(cmd string, strict bool) error {
	if cmd == "" {
		return &Denial{Code: CodeMissingCommand}
	}

	for _, r := range g.deny {
		if r.re.MatchString(cmd) {
			return &Denial{Code: CodeCommandDenied, Pattern: r.source}
		}
	}

	if !strict {
		return nil
	}
	for _, r := range g.allow {
		if r.re.MatchString(cmd) {
			return nil
		}
	}
	return &Denial{Code: CodeNotAllowlisted}
}

// Counts returns the number of deny and allow rules.
func (g *Gate) Counts() (deny, allow int) {
	return len(g.deny), len(g.allow)
}
