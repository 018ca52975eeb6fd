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

type packageInfo struct {
	ImportPath string
	Imports    []string
}

// layerRule forbids packages under Package from importing anything under one
// of the Forbidden prefixes. The weapon core must stay independent of the
// reference world, the runner and the transports built around it.
type layerRule struct {
	Package   string
	Forbidden []string
}

var rules = []layerRule{
	{Package: "ordnance/internal/geom", Forbidden: []string{"ordnance/internal/", "ordnance/catalog", "ordnance/logging"}},
	{Package: "ordnance/internal/bonus", Forbidden: []string{"ordnance/internal/weapon", "ordnance/internal/arena", "ordnance/internal/app", "ordnance/internal/net", "ordnance/catalog"}},
	{Package: "ordnance/internal/weapon", Forbidden: []string{"ordnance/internal/arena", "ordnance/internal/app", "ordnance/internal/net", "ordnance/catalog"}},
	{Package: "ordnance/catalog", Forbidden: []string{"ordnance/internal/arena", "ordnance/internal/app", "ordnance/internal/net"}},
	{Package: "ordnance/internal/arena", Forbidden: []string{"ordnance/internal/app", "ordnance/internal/net", "ordnance/catalog"}},
	{Package: "ordnance/logging", Forbidden: []string{"ordnance/internal/", "ordnance/catalog"}},
}

func main() {
	cmd := exec.Command("go", "list", "-json", "./...")
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	violations, err := check(bytes.NewReader(output))
	if err != nil {
		fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
		os.Exit(1)
	}

	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

func check(r io.Reader) ([]string, error) {
	decoder := json.NewDecoder(r)
	var violations []string
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		for _, rule := range rules {
			if !within(pkg.ImportPath, rule.Package) {
				continue
			}
			for _, imp := range pkg.Imports {
				for _, forbidden := range rule.Forbidden {
					if strings.HasPrefix(imp, forbidden) && !within(imp, rule.Package) {
						violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
					}
				}
			}
		}
	}
	sort.Strings(violations)
	return violations, nil
}

func within(path, pkg string) bool {
	return path == pkg || strings.HasPrefix(path, pkg+"/")
}
