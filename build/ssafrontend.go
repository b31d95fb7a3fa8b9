package build

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// LoadProgram type-checks and builds SSA for the Go package(s) named by
// patterns (a file path or package pattern, as accepted by
// golang.org/x/tools/go/packages), the same packages.Load +
// ssautil.AllPackages pipeline the pointer-analysis front end in the
// example pack uses to get from source to golang.org/x/tools/go/ssa.
func LoadProgram(patterns ...string) (*ssa.Program, []*ssa.Package, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedImports |
			packages.NeedDeps | packages.NeedTypes | packages.NeedTypesSizes |
			packages.NeedSyntax | packages.NeedTypesInfo,
	}
	log.Debug("loading packages: ", patterns)
	initial, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, nil, fmt.Errorf("build: loading packages: %w", err)
	}
	if packages.PrintErrors(initial) > 0 {
		return nil, nil, fmt.Errorf("build: input packages contain errors")
	}
	if len(initial) == 0 {
		return nil, nil, fmt.Errorf("build: no packages matched %v", patterns)
	}

	prog, pkgs := ssautil.AllPackages(initial, ssa.SanityCheckFunctions)
	log.Debug("building SSA")
	prog.Build()
	return prog, pkgs, nil
}

// EntryFunction finds the function with the given unqualified name
// (e.g. "main") among pkgs' members, taking the first package that has
// one; it is the unit build turns into the system's main Cfa.
func EntryFunction(pkgs []*ssa.Package, name string) (*ssa.Function, error) {
	for _, pkg := range pkgs {
		if pkg == nil {
			continue
		}
		if fn := pkg.Func(name); fn != nil {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("build: no function named %q among loaded packages", name)
}

// AllFunctions returns every non-synthetic function defined in pkgs,
// in a stable order — build generates one Cfa per entry, wired by
// CallTransitions as user calls are encountered.
func AllFunctions(pkgs []*ssa.Package) []*ssa.Function {
	var out []*ssa.Function
	seen := make(map[*ssa.Function]bool)
	var addMembers func(pkg *ssa.Package)
	addMembers = func(pkg *ssa.Package) {
		names := make([]string, 0, len(pkg.Members))
		for name := range pkg.Members {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fn, ok := pkg.Members[name].(*ssa.Function)
			if !ok || fn.Synthetic != "" || seen[fn] {
				continue
			}
			seen[fn] = true
			out = append(out, fn)
		}
	}
	for _, pkg := range pkgs {
		if pkg != nil {
			addMembers(pkg)
		}
	}
	return out
}
