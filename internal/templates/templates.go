// Package templates reads the repository of JSON Permission Set and
// Assignment files into in-memory catalogs for the validator and the
// reconciliation/expansion drivers.
package templates

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/nicholasgasior/ssopipe/internal/model"
)

// LoadPermissionSets reads every *.json file directly under dir into a
// Permission Set catalog. Each file is a single object keyed by Name (§3,
// §4.2). Files are read in lexical filename order for deterministic
// diagnostics and test output.
func LoadPermissionSets(dir string) ([]model.PermissionSet, error) {
	paths, err := jsonFilesIn(dir)
	if err != nil {
		return nil, err
	}

	catalog := make([]model.PermissionSet, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read permission set %s: %w", path, err)
		}

		var ps model.PermissionSet
		if err := json.Unmarshal(data, &ps); err != nil {
			return nil, malformedJSONError(path, data, err)
		}
		ps.SourceFile = path
		catalog = append(catalog, ps)
	}

	return catalog, nil
}

// LoadAssignments reads every *.json file directly under dir and flattens
// their "Assignments" arrays into a single list, preserving file discovery
// order (§4.2).
func LoadAssignments(dir string) ([]model.Assignment, error) {
	paths, err := jsonFilesIn(dir)
	if err != nil {
		return nil, err
	}

	var flattened []model.Assignment
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read assignment file %s: %w", path, err)
		}

		var file model.AssignmentFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, malformedJSONError(path, data, err)
		}

		for _, a := range file.Assignments {
			a.SourceFile = path
			flattened = append(flattened, a)
		}
	}

	return flattened, nil
}

// jsonFilesIn returns the sorted list of *.json file paths directly under
// dir (non-recursive).
func jsonFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read template directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// malformedJSONError computes a line:column offset for a JSON syntax error
// so the failure message points at the exact byte that broke parsing,
// rather than just naming the file.
func malformedJSONError(path string, data []byte, err error) error {
	syntaxErr, ok := err.(*json.SyntaxError)
	if !ok {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	line, col := lineColAt(data, syntaxErr.Offset)
	return fmt.Errorf("parse %s:%d:%d: %w", path, line, col, err)
}

// lineColAt converts a byte offset into a 1-indexed line and column.
func lineColAt(data []byte, offset int64) (line, col int) {
	line, col = 1, 1
	for i := int64(0); i < offset && i < int64(len(data)); i++ {
		if data[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
