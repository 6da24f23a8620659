// Command check_boundaries enforces the import rules between the layers of
// every bounded context under contexts/. Run it from the repository root:
//
//	go run ./scripts/check_boundaries.go [root]
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "tribunal"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what one layer may import besides the standard library.
// Own-module entries are relative to the context service root.
type layerRule struct {
	ownModule []string
	external  []string
	// extra grants packages matching a path fragment additional imports.
	extra map[string][]string
	// siblingsIsolated forbids imports between sub-packages of the layer.
	siblingsIsolated bool
}

var layerRules = map[string]layerRule{
	"domain": {
		ownModule: []string{"domain"},
	},
	"ports": {
		ownModule: []string{"domain", "ports"},
		external:  []string{modulePath + "/contracts"},
		extra: map[string][]string{
			"/ports/ledgertest/": {"github.com/stretchr/testify"},
		},
	},
	"application": {
		ownModule: []string{"application", "domain", "ports"},
		external:  []string{modulePath + "/contracts"},
	},
	"transport": {
		external: []string{modulePath + "/contracts"},
	},
	"adapters": {
		ownModule:        []string{"adapters", "application", "domain", "ports", "transport"},
		external:         []string{"*"},
		siblingsIsolated: true,
	},
}

func main() {
	root := "contexts"
	if len(os.Args) > 1 {
		root = os.Args[1]
	}
	violations, err := collectViolations(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "boundary check failed: %v\n", err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})
	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) ([]violation, error) {
	var violations []violation
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		normalized := filepath.ToSlash(path)
		parts := strings.Split(normalized, "/")
		// contexts/<context>/<service>/<layer>/...; files at the service root
		// wire the layers together and are not checked.
		if len(parts) < 5 || parts[0] != "contexts" {
			return nil
		}
		serviceRoot := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
		fileViolations, err := checkFile(path, normalized, parts[3], serviceRoot)
		if err != nil {
			return err
		}
		violations = append(violations, fileViolations...)
		return nil
	})
	return violations, err
}

func checkFile(path string, normalized string, layer string, serviceRoot string) ([]violation, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", normalized, err)
	}
	rule, known := layerRules[layer]

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		report := func(reason string) {
			violations = append(violations, violation{
				File:   normalized,
				Line:   fset.Position(imp.Pos()).Line,
				Import: importPath,
				Rule:   reason,
			})
		}

		if !known {
			report("unknown layer " + layer)
			continue
		}
		if isStdlib(importPath) {
			continue
		}
		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, serviceRoot) {
			report("cross-context imports are forbidden")
			continue
		}
		if hasPrefix(importPath, modulePath+"/internal") {
			report(layer + " must not import runtime infrastructure")
			continue
		}
		if hasPrefix(importPath, serviceRoot) {
			if reason := checkOwnModule(rule, layer, normalized, strings.TrimPrefix(importPath, serviceRoot+"/")); reason != "" {
				report(reason)
			}
			continue
		}
		if !allowsExternal(rule, normalized, importPath) {
			report(layer + " import is outside explicit allowlist")
		}
	}
	return violations, nil
}

func checkOwnModule(rule layerRule, layer string, file string, target string) string {
	targetLayer, _, _ := strings.Cut(target, "/")
	if !contains(rule.ownModule, targetLayer) {
		return layer + " must not import " + targetLayer
	}
	if rule.siblingsIsolated && targetLayer == layer {
		own := packageUnder(file, layer)
		other := packageUnder("x/"+target, layer)
		if own != other {
			return layer + " packages must not import each other"
		}
	}
	return ""
}

func allowsExternal(rule layerRule, file string, importPath string) bool {
	for _, prefix := range rule.external {
		if prefix == "*" || hasPrefix(importPath, prefix) {
			return true
		}
	}
	for fragment, prefixes := range rule.extra {
		if !strings.Contains(file, fragment) {
			continue
		}
		for _, prefix := range prefixes {
			if hasPrefix(importPath, prefix) {
				return true
			}
		}
	}
	return false
}

// packageUnder returns the first path element after layer, or "" when the
// path ends at the layer itself.
func packageUnder(path string, layer string) string {
	_, rest, found := strings.Cut(path, "/"+layer+"/")
	if !found {
		return ""
	}
	pkg, _, _ := strings.Cut(rest, "/")
	if strings.HasSuffix(pkg, ".go") {
		return ""
	}
	return pkg
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
