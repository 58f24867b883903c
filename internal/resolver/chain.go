package resolver

import (
	"fmt"
	"strings"

	"typeuml/internal/diag"
	"typeuml/internal/index"
	"typeuml/internal/naming"
)

// Stage is one step of the resolution cascade. Try returns false to fall
// through to the next stage.
type Stage interface {
	Name() string
	Try(name string, site Site) (TypeRef, bool)
}

// Stage names, in cascade order.
const (
	StageOracle      = "oracle"
	StageExact       = "exact"
	StageScope       = "scope"
	StageSamePackage = "same_package"
	StageUnique      = "unique_simple_name"
)

// NewDefaultChain returns the cascade used by New. The oracle stage is left out
// when oracle is nil.
func NewDefaultChain(idx *index.Index, oracle Oracle, diags *diag.Log) []Stage {
	var stages []Stage
	if oracle != nil {
		stages = append(stages, &oracleStage{idx: idx, oracle: oracle, diags: diags})
	}
	return append(stages,
		&exactStage{idx: idx},
		&scopeStage{idx: idx},
		&samePackageStage{idx: idx},
		&uniqueStage{idx: idx},
	)
}

type oracleStage struct {
	idx    *index.Index
	oracle Oracle
	diags  *diag.Log
}

func (s *oracleStage) Name() string { return StageOracle }

func (s *oracleStage) Try(name string, site Site) (ref TypeRef, ok bool) {
	ans, found, err := s.ask(name, site)
	if err != nil {
		s.diags.Addf(diag.OracleFailure, name, fmt.Sprintf("%s: %v", site.Path, err))
		return nil, false
	}
	if !found {
		return nil, false
	}
	if ans.Decl != nil {
		if key, ok := s.idx.KeyOfDecl(ans.Decl); ok {
			return Declared{Key: key}, true
		}
	}
	if ans.QualifiedName == "" {
		return nil, false
	}
	for _, k := range naming.NestedSpellings(ans.QualifiedName) {
		if s.idx.Has(k) {
			return Declared{Key: k}, true
		}
	}
	return External{QualifiedName: ans.QualifiedName}, true
}

// ask shields the cascade from oracles that panic; a panic counts as a decline.
func (s *oracleStage) ask(name string, site Site) (ans Answer, found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("oracle panic: %v", r)
		}
	}()
	return s.oracle.TryResolve(name, site)
}

// exactStage matches names already written in qualified form. In a named
// package a single identifier is never qualified.
type exactStage struct {
	idx *index.Index
}

func (s *exactStage) Name() string { return StageExact }

func (s *exactStage) Try(name string, site Site) (TypeRef, bool) {
	if !strings.Contains(name, naming.PackageSep) && site.Package != "" {
		return nil, false
	}
	for _, k := range naming.NestedSpellings(name) {
		if s.idx.Has(k) {
			return Declared{Key: k}, true
		}
	}
	return nil, false
}

// scopeStage looks for member types of the enclosing types, innermost first.
type scopeStage struct {
	idx *index.Index
}

func (s *scopeStage) Name() string { return StageScope }

func (s *scopeStage) Try(name string, site Site) (TypeRef, bool) {
	suffix := naming.Key(naming.NestingSep + strings.ReplaceAll(name, naming.PackageSep, naming.NestingSep))
	for cur := site.Owner; cur != "" && s.idx.Has(cur); {
		if k := cur + suffix; s.idx.Has(k) {
			return Declared{Key: k}, true
		}
		parent, ok := naming.OwnerOf(cur)
		if !ok {
			break
		}
		cur = parent
	}
	return nil, false
}

// samePackageStage runs before the unique-name shortcut so that a type in the
// consumer's package shadows an unrelated type elsewhere.
type samePackageStage struct {
	idx *index.Index
}

func (s *samePackageStage) Name() string { return StageSamePackage }

func (s *samePackageStage) Try(name string, site Site) (TypeRef, bool) {
	if k := naming.KeyOf(site.Package, naming.SimpleName(name), ""); s.idx.Has(k) {
		return Declared{Key: k}, true
	}
	if strings.Contains(name, naming.PackageSep) {
		nested := strings.ReplaceAll(name, naming.PackageSep, naming.NestingSep)
		if k := naming.KeyOf(site.Package, nested, ""); s.idx.Has(k) {
			return Declared{Key: k}, true
		}
	}
	return nil, false
}

// uniqueStage uses the corpus-wide unique simple name map. Uniqueness is
// global, not per consuming package.
type uniqueStage struct {
	idx *index.Index
}

func (s *uniqueStage) Name() string { return StageUnique }

func (s *uniqueStage) Try(name string, _ Site) (TypeRef, bool) {
	if k, ok := s.idx.Unique(naming.SimpleName(name)); ok {
		return Declared{Key: k}, true
	}
	return nil, false
}
