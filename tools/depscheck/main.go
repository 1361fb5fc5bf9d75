package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const modulePath = "roadrunner/server"

type packageInfo struct {
	ImportPath string
	Imports    []string
}

// rule forbids packages under Pattern from importing any of Forbidden.
type rule struct {
	Pattern   string
	Forbidden []string
}

var rules = []rule{
	{
		Pattern: "./internal/roadmap/...",
		Forbidden: []string{
			modulePath + "/internal/",
			modulePath + "/logging",
		},
	},
	{
		Pattern: "./internal/world/...",
		Forbidden: []string{
			modulePath + "/internal/game",
			modulePath + "/internal/net",
			modulePath + "/internal/app",
			modulePath + "/internal/sim",
		},
	},
	{
		Pattern: "./internal/game/...",
		Forbidden: []string{
			modulePath + "/internal/net",
			modulePath + "/internal/app",
		},
	},
}

func main() {
	var violations []string
	for _, r := range rules {
		pkgs, err := listPackages(r.Pattern)
		if err != nil {
			fmt.Fprintf(os.Stderr, "depscheck: %v\n", err)
			os.Exit(1)
		}
		violations = append(violations, check(pkgs, r)...)
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

func listPackages(pattern string) ([]packageInfo, error) {
	cmd := exec.Command("go", "list", "-json", pattern)
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		return nil, fmt.Errorf("failed to list packages %s: %w", pattern, err)
	}
	return decodePackages(bytes.NewReader(output))
}

func decodePackages(r io.Reader) ([]packageInfo, error) {
	decoder := json.NewDecoder(r)
	var pkgs []packageInfo
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				return pkgs, nil
			}
			return nil, fmt.Errorf("failed to decode package info: %w", err)
		}
		pkgs = append(pkgs, pkg)
	}
}

// check reports imports matching a forbidden prefix. A package may always
// import itself and its own subpackages.
func check(pkgs []packageInfo, r rule) []string {
	var violations []string
	for _, pkg := range pkgs {
		for _, imp := range pkg.Imports {
			if imp == pkg.ImportPath || strings.HasPrefix(imp, pkg.ImportPath+"/") {
				continue
			}
			if sameTree(imp, pkg.ImportPath) {
				continue
			}
			for _, prefix := range r.Forbidden {
				if strings.HasPrefix(imp, prefix) {
					violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
					break
				}
			}
		}
	}
	return violations
}

// sameTree reports whether imp lives under the pattern root of pkg, so
// internal/roadmap/foo may import internal/roadmap.
func sameTree(imp, pkg string) bool {
	root := strings.TrimPrefix(pkg, modulePath+"/")
	parts := strings.SplitN(root, "/", 3)
	if len(parts) < 2 {
		return false
	}
	tree := modulePath + "/" + parts[0] + "/" + parts[1]
	return imp == tree || strings.HasPrefix(imp, tree+"/")
}
