// preprocessor.go implements the WGSL `#import <name>` directive. Imports are
// resolved recursively: the built-in snippet table is consulted first, then
// <library root>/<name>.wgsl on disk. A visited set tracks the active import
// chain so that cycles fail with an error naming the offending import instead
// of recursing forever.
package shader

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var importRegex = regexp.MustCompile(`^\s*#import\s+<([\w./-]+)>\s*$`)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// libraryRoot is the directory file imports resolve against. Empty
	// restricts resolution to the built-in table.
	libraryRoot string

	// builtins maps import names to embedded WGSL snippets, checked before
	// the filesystem.
	builtins map[string]string
}

// PreProcessor expands `#import <name>` directives in WGSL source into the
// imported snippet text, recursively.
type PreProcessor interface {
	// Process expands every import directive in source. Each directive line
	// is replaced by the imported snippet with its own imports expanded.
	// An import participating in a cycle, or one found in neither the
	// built-in table nor the library root, is an error.
	//
	// Parameters:
	//   - source: the raw WGSL source text
	//
	// Returns:
	//   - string: the fully expanded WGSL source
	//   - error: an error if any import is unknown or cyclic
	Process(source string) (string, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a pre-processor resolving file imports against the
// given library root.
//
// Parameters:
//   - libraryRoot: the directory `<name>.wgsl` imports are read from; empty
//     limits resolution to built-in snippets
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(libraryRoot string) PreProcessor {
	return &preProcessor{
		libraryRoot: libraryRoot,
		builtins:    builtinImports,
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	return p.expand(source, map[string]bool{})
}

// expand walks source line by line, splicing in resolved imports. visited
// holds the import names on the current resolution chain.
func (p *preProcessor) expand(source string, visited map[string]bool) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		match := importRegex.FindStringSubmatch(line)
		if match == nil {
			out = append(out, line)
			continue
		}

		name := match[1]
		if visited[name] {
			return "", fmt.Errorf("line %d: import cycle through %q", i+1, name)
		}

		snippet, err := p.lookup(name)
		if err != nil {
			return "", fmt.Errorf("line %d: %w", i+1, err)
		}

		visited[name] = true
		expanded, err := p.expand(snippet, visited)
		delete(visited, name)
		if err != nil {
			return "", fmt.Errorf("import %q: %w", name, err)
		}
		out = append(out, expanded)
	}
	return strings.Join(out, "\n"), nil
}

// lookup resolves an import name: built-in table first, library root second.
func (p *preProcessor) lookup(name string) (string, error) {
	if snippet, ok := p.builtins[name]; ok {
		return snippet, nil
	}
	if p.libraryRoot != "" {
		path := filepath.Join(p.libraryRoot, name+".wgsl")
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
	}
	return "", fmt.Errorf("unknown import %q", name)
}
