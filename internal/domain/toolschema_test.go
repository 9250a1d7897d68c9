package domain

import (
	"strings"
	"testing"
)

func TestBuildToolSchemaEmbedsCatalog(t *testing.T) {
	pol := &Policy{
		Catalog: []CommandSpec{
			{Pattern: "git status", Description: "show working tree status"},
			{Pattern: "go test ./..."},
		},
	}
	schema := BuildToolSchema(pol)
	if !strings.Contains(schema.Description, "git status: show working tree status") {
		t.Errorf("catalog description not embedded verbatim:\n%s", schema.Description)
	}
	if !strings.Contains(schema.Description, "go test ./...") {
		t.Errorf("pattern without description missing:\n%s", schema.Description)
	}
}

func TestBuildToolSchemaFallbackDescription(t *testing.T) {
	schema := BuildToolSchema(&Policy{})
	if !strings.Contains(schema.Description, "read-only") {
		t.Errorf("fallback description should mention safe categories:\n%s", schema.Description)
	}
}
