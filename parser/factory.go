package parser

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CreateParser creates the appropriate parser based on the Gemfile name
func CreateParser(filePath string) (Parser, error) {
	base := filepath.Base(filePath)

	switch {
	case strings.HasPrefix(base, "Gemfile"), base == "gems.rb":
		return NewRubyParser()
	case strings.HasSuffix(strings.ToLower(base), ".gemfile"), strings.ToLower(filepath.Ext(base)) == ".rb":
		return NewRubyParser()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", base)
	}
}

func deduplicateSources(decls []SourceDeclaration) []SourceDeclaration {
	seen := make(map[string]bool)
	var result []SourceDeclaration

	for _, d := range decls {
		key := fmt.Sprintf("%s|%s|%s|%d", d.Kind, d.Name, d.URI, d.Line)
		if !seen[key] {
			seen[key] = true
			result = append(result, d)
		}
	}

	return result
}
