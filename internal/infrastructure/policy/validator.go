// Package policy implements the pattern validator deciding whether a
// candidate command string is permitted.
package policy

import (
	"fmt"
	"strings"

	"github.com/doeshing/cmdagent/internal/domain"
	"github.com/doeshing/cmdagent/internal/ports"
)

// safeDefaults is the built-in allow-list used when neither a catalog
// nor an explicit allow-list is configured. Read-only commands only.
// Each entry is either the bare command or the command followed by a
// space and arguments; a bare trailing glob like "ps*" would also
// match unrelated binaries sharing the prefix (psql, lsof, dfu-util).
var safeDefaults = []string{
	"git status", "git status *",
	"git log", "git log *",
	"git diff", "git diff *",
	"git show", "git show *",
	"git branch",
	"ls", "ls *",
	"cat *",
	"head *",
	"tail *",
	"grep *",
	"find *",
	"wc *",
	"go test", "go test *",
	"go vet", "go vet *",
	"npm test", "npm test *",
	"pytest", "pytest *",
	"cargo test", "cargo test *",
	"make test",
	"pwd",
	"whoami",
	"df", "df *",
	"ps", "ps *",
	"uname", "uname *",
	"date",
	"env",
}

// Validator is a pure, deterministic policy check. It holds no state;
// every decision derives from the (command, policy) pair alone.
type Validator struct{}

// New creates a Validator.
func New() *Validator {
	return &Validator{}
}

// IsAllowed applies the policy rules in precedence order:
//
//  1. deny globs always win
//  2. a non-empty catalog permits exact pattern matches or
//     prefix-glob matches (pattern + "*"); with a catalog configured
//     and no allow-list, the catalog is authoritative
//  3. explicit allow globs
//  4. built-in safe defaults when neither catalog nor allow-list is
//     configured
func (v *Validator) IsAllowed(command string, policy *domain.Policy) bool {
	command = strings.TrimSpace(command)
	if command == "" {
		return false
	}

	if matchAny(policy.Deny, command) {
		return false
	}

	if policy.HasCatalog() {
		if v.catalogMatches(command, policy.Catalog) {
			return true
		}
		if !policy.HasAllowList() {
			return false
		}
	}

	if policy.HasAllowList() {
		return matchAny(policy.Allow, command)
	}

	return matchAny(safeDefaults, command)
}

func (v *Validator) catalogMatches(command string, catalog []domain.CommandSpec) bool {
	for _, spec := range catalog {
		if command == spec.Pattern {
			return true
		}
		// Argument variations on a documented base command.
		if globMatch(spec.Pattern+"*", command) {
			return true
		}
	}
	return false
}

// Explain produces the denial reason reported back to the model and
// recorded in the trace, including a remediation hint.
func (v *Validator) Explain(command string, policy *domain.Policy) string {
	command = strings.TrimSpace(command)
	for _, pattern := range policy.Deny {
		if globMatch(pattern, command) {
			return fmt.Sprintf("command matches deny pattern %q", pattern)
		}
	}
	if policy.HasCatalog() && !policy.HasAllowList() {
		return "command is not in the configured command catalog; only cataloged commands may run"
	}
	if policy.HasAllowList() {
		return "command does not match any allow pattern; add a pattern to the allow-list to permit it"
	}
	return "command is not in the built-in safe defaults; configure a catalog or allow-list to permit it"
}

var _ ports.Validator = (*Validator)(nil)
