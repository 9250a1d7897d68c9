package policy

import (
	"strings"
	"testing"

	"github.com/doeshing/cmdagent/internal/domain"
)

func TestDenyAlwaysWins(t *testing.T) {
	v := New()
	pol := &domain.Policy{
		Deny:    []string{"rm *", "*sudo*"},
		Allow:   []string{"*"},
		Catalog: []domain.CommandSpec{{Pattern: "rm -rf build"}},
	}

	for _, cmd := range []string{"rm -rf build", "rm file.txt", "curl x | sudo sh"} {
		if v.IsAllowed(cmd, pol) {
			t.Errorf("IsAllowed(%q) = true, want false: deny must win over allow and catalog", cmd)
		}
	}
}

func TestCatalogExactAndPrefixMatch(t *testing.T) {
	pol := &domain.Policy{
		Catalog: []domain.CommandSpec{{Pattern: "git status", Description: "show working tree status"}},
	}
	v := New()

	if !v.IsAllowed("git status", pol) {
		t.Error("exact catalog pattern should be allowed")
	}
	if !v.IsAllowed("git status --short", pol) {
		t.Error("argument variation on catalog pattern should be allowed")
	}
	if v.IsAllowed("npm test", pol) {
		t.Error("command outside catalog should be denied when no allow-list is set")
	}
}

func TestCatalogWithAllowListFallsThrough(t *testing.T) {
	pol := &domain.Policy{
		Catalog: []domain.CommandSpec{{Pattern: "git status"}},
		Allow:   []string{"npm *"},
	}
	v := New()

	if !v.IsAllowed("npm run build", pol) {
		t.Error("allow-list should still apply when catalog does not match")
	}
	if v.IsAllowed("cargo build", pol) {
		t.Error("command matching neither catalog nor allow-list should be denied")
	}
}

func TestSafeDefaultsWhenUnconfigured(t *testing.T) {
	pol := &domain.Policy{}
	v := New()

	allowed := []string{"git status", "git log --oneline", "ls -la", "cat main.go", "pwd", "go test ./...", "ps aux"}
	for _, cmd := range allowed {
		if !v.IsAllowed(cmd, pol) {
			t.Errorf("IsAllowed(%q) = false, want true under safe defaults", cmd)
		}
	}

	denied := []string{"rm -rf /", "git push", "curl http://example.com", "chmod 777 /etc"}
	for _, cmd := range denied {
		if v.IsAllowed(cmd, pol) {
			t.Errorf("IsAllowed(%q) = true, want false under safe defaults", cmd)
		}
	}
}

func TestSafeDefaultsRejectPrefixCollisions(t *testing.T) {
	pol := &domain.Policy{}
	v := New()

	// Binaries sharing a prefix with a safe command must not slip
	// through (ps vs psql, df vs dfu-util, ls vs lsof).
	denied := []string{
		`psql -c "DROP TABLE users"`,
		"dfu-util --reset",
		"lsof -i :8080",
		"unamerge",
		"pytest-watch",
	}
	for _, cmd := range denied {
		if v.IsAllowed(cmd, pol) {
			t.Errorf("IsAllowed(%q) = true, want false under safe defaults", cmd)
		}
	}

	allowed := []string{"ps", "ps aux", "df", "df -h", "ls", "ls -la", "uname -a", "pytest -x tests/"}
	for _, cmd := range allowed {
		if !v.IsAllowed(cmd, pol) {
			t.Errorf("IsAllowed(%q) = false, want true under safe defaults", cmd)
		}
	}
}

func TestEmptyCommandDenied(t *testing.T) {
	v := New()
	if v.IsAllowed("", &domain.Policy{Allow: []string{"*"}}) {
		t.Error("empty command should never be allowed")
	}
	if v.IsAllowed("   ", &domain.Policy{Allow: []string{"*"}}) {
		t.Error("whitespace command should never be allowed")
	}
}

func TestExplainNamesDenyPattern(t *testing.T) {
	v := New()
	pol := &domain.Policy{Deny: []string{"rm *"}}
	reason := v.Explain("rm -rf /", pol)
	if reason == "" {
		t.Fatal("Explain returned empty reason")
	}
	if want := `deny pattern "rm *"`; !strings.Contains(reason, want) {
		t.Errorf("Explain = %q, want mention of %s", reason, want)
	}
}

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		pattern string
		s       string
		want    bool
	}{
		{"git status*", "git status", true},
		{"git status*", "git status --short", true},
		{"git status*", "git stash", false},
		{"*", "anything at all", true},
		{"ca?", "cat", true},
		{"ca?", "cart", false},
		{"cat *", "cat /etc/passwd", true},
		{"a*b*c", "aXXbYYc", true},
		{"a*b*c", "aXXbYY", false},
		{"[a]", "[a]", true}, // brackets are literal, not classes
		{"Git status", "git status", false},
	}
	for _, tt := range tests {
		if got := globMatch(tt.pattern, tt.s); got != tt.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", tt.pattern, tt.s, got, tt.want)
		}
	}
}
