package schema

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	language "github.com/hanpama/frontier/internal/language"
)

// Source is one named SDL document.
type Source struct {
	Name    string
	Content string
}

// LoadDir reads every .graphql file below dir. Source names are relative to
// dir and sources are ordered by name.
func LoadDir(dir string) ([]Source, error) {
	var sources []Source
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(d.Name()) != ".graphql" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %q: %w", path, err)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %q: %w", path, err)
		}
		sources = append(sources, Source{Name: filepath.ToSlash(rel), Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %q: %w", dir, err)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return sources, nil
}

// BuildFromSources builds one schema from the union of several SDL
// documents. A type may be defined in one source and extended in another.
// Parse errors of every source are reported together.
func BuildFromSources(sources ...Source) (*Schema, error) {
	var violations ValidationError
	merged := &language.SchemaDocument{}
	for _, src := range sources {
		doc, err := language.ParseSchema(src.Name, src.Content)
		if err != nil {
			violations = append(violations, violationFromParseError(src.Name, err))
			continue
		}
		merged.Schema = append(merged.Schema, doc.Schema...)
		merged.SchemaExtension = append(merged.SchemaExtension, doc.SchemaExtension...)
		merged.Directives = append(merged.Directives, doc.Directives...)
		merged.Definitions = append(merged.Definitions, doc.Definitions...)
		merged.Extensions = append(merged.Extensions, doc.Extensions...)
	}
	if len(violations) > 0 {
		return nil, violations
	}
	return buildFromDocument(merged)
}
