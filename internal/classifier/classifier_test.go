package classifier

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeuml/internal/corpus"
	"typeuml/internal/diag"
	"typeuml/internal/diagram"
	"typeuml/internal/index"
	"typeuml/internal/resolver"
)

func classify(t *testing.T, opts Options, units ...*corpus.CompilationUnit) ([]string, Result) {
	t.Helper()
	b := index.NewBuilder(&diag.Log{})
	b.IngestAll(units)
	idx := b.Build()

	var rec diagram.Recorder
	res := New(idx, resolver.New(idx, nil), opts).Classify(&rec)
	return rec.Lines(), res
}

func unit(pkg string, types ...*corpus.TypeDecl) *corpus.CompilationUnit {
	path := strings.ReplaceAll(pkg, ".", "/") + "/" + types[0].Name + ".java"
	return &corpus.CompilationUnit{Path: path, Package: pkg, Types: types}
}

func class(name string) *corpus.TypeDecl {
	return &corpus.TypeDecl{Name: name, Kind: corpus.KindClass}
}

func field(name string, typ *corpus.TypeUsage, modifiers ...string) corpus.Field {
	return corpus.Field{Name: name, Type: typ, Modifiers: modifiers}
}

func filter(lines []string, prefix string) []string {
	var out []string
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			out = append(out, l)
		}
	}
	return out
}

func TestClassify_FieldOfDeclaredTypeIsAssociation(t *testing.T) {
	a := class("A")
	a.Fields = []corpus.Field{field("b", corpus.NamedType("B"))}

	lines, res := classify(t, DefaultOptions(), unit("p1", a, class("B")))

	assert.Equal(t, []string{
		"node p1.A class",
		"end p1.A",
		"node p1.B class",
		"end p1.B",
		"association p1.A p1.B b",
	}, lines)
	assert.Equal(t, 1, res.Associations)
	assert.Equal(t, 0, res.Attributes)
}

func TestClassify_AssociationSuppressesDependency(t *testing.T) {
	a := class("A")
	a.Fields = []corpus.Field{field("b", corpus.NamedType("B"))}
	a.Methods = []corpus.Method{{Name: "m", Return: corpus.NamedType("B")}}
	a.Usages = []corpus.Usage{{Context: corpus.UsageNew, Type: corpus.NamedType("B")}}

	lines, res := classify(t, DefaultOptions(), unit("p1", a, class("B")))

	assert.Equal(t, []string{"association p1.A p1.B b"}, filter(lines, "association"))
	assert.Empty(t, filter(lines, "dependency"))
	assert.Equal(t, 2, res.Suppressed)
	assert.Equal(t, []string{"operation p1.A ~m(): B"}, filter(lines, "operation"))
}

func TestClassify_OneAssociationPerField(t *testing.T) {
	a := class("A")
	a.Fields = []corpus.Field{
		field("primary", corpus.NamedType("B")),
		field("backup", corpus.NamedType("B")),
	}

	lines, res := classify(t, DefaultOptions(), unit("p", a, class("B")))

	assert.Equal(t, []string{
		"association p.A p.B primary",
		"association p.A p.B backup",
	}, filter(lines, "association"))
	assert.Equal(t, 2, res.Associations)
	assert.Empty(t, filter(lines, "attribute p.A"))
	assert.Empty(t, filter(lines, "dependency"))
}

func TestClassify_StructuralEdgesSuppressDependencies(t *testing.T) {
	t.Run("inheritance", func(t *testing.T) {
		sub := class("Sub")
		sub.Extends = []*corpus.TypeUsage{corpus.NamedType("Base")}
		sub.Usages = []corpus.Usage{{Context: corpus.UsageNew, Type: corpus.NamedType("Base")}}

		lines, res := classify(t, DefaultOptions(), unit("p", class("Base"), sub))

		assert.Equal(t, []string{"inheritance p.Sub p.Base"}, filter(lines, "inheritance"))
		assert.Empty(t, filter(lines, "dependency"))
		assert.Equal(t, 1, res.Suppressed)
	})

	t.Run("owns", func(t *testing.T) {
		outer := class("Outer")
		outer.Nested = []*corpus.TypeDecl{class("Part")}
		outer.Usages = []corpus.Usage{{Context: corpus.UsageNew, Type: corpus.NamedType("Part")}}

		lines, res := classify(t, DefaultOptions(), unit("p", outer))

		assert.Equal(t, []string{"owns p.Outer p.Outer$Part"}, filter(lines, "owns"))
		assert.Empty(t, filter(lines, "dependency"))
		assert.Equal(t, 1, res.Suppressed)
	})

	t.Run("reverse direction is kept", func(t *testing.T) {
		sub := class("Sub")
		sub.Extends = []*corpus.TypeUsage{corpus.NamedType("Base")}
		base := class("Base")
		base.Usages = []corpus.Usage{{Context: corpus.UsageInstanceOf, Type: corpus.NamedType("Sub")}}

		lines, _ := classify(t, DefaultOptions(), unit("p", base, sub))

		assert.Equal(t, []string{"dependency p.Base p.Sub"}, filter(lines, "dependency"))
	})
}

func TestClassify_NestingDepth(t *testing.T) {
	c := class("C")
	b := class("B")
	b.Nested = []*corpus.TypeDecl{c}
	a := class("A")
	a.Nested = []*corpus.TypeDecl{b}

	lines, res := classify(t, DefaultOptions(), unit("p", a))

	assert.Equal(t, []string{
		"owns p.A p.A$B",
		"owns p.A$B p.A$B$C",
	}, filter(lines, "owns"))
	assert.Equal(t, 2, res.Owns)
	assert.Equal(t, 3, res.Nodes)
}

func TestClassify_NoSelfEdges(t *testing.T) {
	a := class("A")
	a.Extends = []*corpus.TypeUsage{corpus.NamedType("A")}
	a.Fields = []corpus.Field{
		field("next", corpus.NamedType("A"), "private"),
		field("all", corpus.NamedType("List", corpus.NamedType("A"))),
	}
	a.Methods = []corpus.Method{{
		Name:   "copy",
		Params: []corpus.Param{{Name: "other", Type: corpus.NamedType("A")}},
		Return: corpus.NamedType("A"),
	}}
	a.Usages = []corpus.Usage{{Context: corpus.UsageCast, Type: corpus.NamedType("A")}}

	lines, _ := classify(t, DefaultOptions(), unit("p", a))

	for _, l := range lines {
		f := strings.Fields(l)
		if len(f) >= 3 && f[0] != "node" && f[0] != "attribute" && f[0] != "operation" {
			assert.NotEqual(t, f[1], f[2], l)
		}
	}
	assert.Contains(t, lines, "attribute p.A -next: A")
	assert.Contains(t, lines, "attribute p.A ~all: List<A>")
	assert.Empty(t, filter(lines, "dependency"))
	assert.Empty(t, filter(lines, "inheritance"))
}

func TestClassify_DependenciesAtMostOnce(t *testing.T) {
	a := class("A")
	a.Usages = []corpus.Usage{
		{Context: corpus.UsageNew, Type: corpus.NamedType("B")},
		{Context: corpus.UsageCast, Type: corpus.NamedType("B")},
		{Context: corpus.UsageInstanceOf, Type: corpus.NamedType("p.B")},
		{Context: corpus.UsageClassLiteral, Type: corpus.NamedType("Helper")},
		{Context: corpus.UsageStaticCall, Type: corpus.NamedType("Helper")},
	}
	a.Methods = []corpus.Method{
		{Name: "x", Params: []corpus.Param{{Name: "b", Type: corpus.ArrayOf(corpus.NamedType("B"), 1)}}},
		{Name: "y", Throws: []*corpus.TypeUsage{corpus.NamedType("B")}},
	}

	lines, res := classify(t, DefaultOptions(), unit("p", a, class("B")))

	assert.Equal(t, []string{
		"dependency p.A p.B",
		"dependency p.A Helper",
	}, filter(lines, "dependency"))
	assert.Equal(t, 2, res.Dependencies)
	assert.Equal(t, 5, res.Suppressed)
}

func TestClassify_GenericArgumentsAreDependencies(t *testing.T) {
	a := class("A")
	a.Fields = []corpus.Field{
		field("items", corpus.NamedType("List", corpus.Wildcard(corpus.NamedType("B")))),
		field("byId", corpus.NamedType("Map", corpus.NamedType("Long"), corpus.ArrayOf(corpus.NamedType("C"), 1))),
		field("cs", corpus.ArrayOf(corpus.NamedType("C"), 2)),
	}

	lines, res := classify(t, DefaultOptions(), unit("p", a, class("B"), class("C")))

	assert.Equal(t, []string{
		"attribute p.A ~items: List<? extends B>",
		"attribute p.A ~byId: Map<Long, C[]>",
	}, filter(lines, "attribute"))
	assert.Equal(t, []string{"association p.A p.C cs"}, filter(lines, "association"))
	// C is already associated.
	assert.Equal(t, []string{
		"dependency p.A p.B",
		"dependency p.A Long",
	}, filter(lines, "dependency"))
	assert.Equal(t, 2, res.Attributes)
}

func TestClassify_ReviewFlaggedSupertypes(t *testing.T) {
	iface := &corpus.TypeDecl{Name: "Priced", Kind: corpus.KindInterface}
	named := &corpus.TypeDecl{Name: "Named", Kind: corpus.KindInterface, Extends: []*corpus.TypeUsage{corpus.NamedType("Priced")}}
	a := class("A")
	a.Extends = []*corpus.TypeUsage{corpus.NamedType("BaseEntity", corpus.NamedType("Long"))}
	a.Implements = []*corpus.TypeUsage{
		corpus.NamedType("Priced"),
		corpus.NamedType("Priced"),
		corpus.NamedType("java.io.Serializable"),
	}

	lines, res := classify(t, Options{}, unit("p", a, iface, named))

	assert.Equal(t, []string{
		"inheritance p.A BaseEntity review",
		"inheritance p.Named p.Priced",
	}, filter(lines, "inheritance"))
	assert.Equal(t, []string{
		"realization p.A p.Priced",
		"realization p.A java.io.Serializable review",
	}, filter(lines, "realization"))
	assert.Equal(t, 2, res.Review)
	assert.Equal(t, 2, res.Inheritance)
	assert.Equal(t, 2, res.Realizations)
}

func TestClassify_Options(t *testing.T) {
	a := class("A")
	a.Constructors = []corpus.Method{{
		Params:    []corpus.Param{{Name: "names", Type: corpus.NamedType("String"), Variadic: true}},
		Modifiers: []string{"public"},
	}}
	a.Methods = []corpus.Method{{
		Name:      "find",
		Params:    []corpus.Param{{Name: "id", Type: corpus.Primitive("long")}},
		Return:    corpus.NamedType("B"),
		Modifiers: []string{"public", "static"},
	}}
	a.Usages = []corpus.Usage{{Context: corpus.UsageNew, Type: corpus.NamedType("Widget")}}

	t.Run("defaults", func(t *testing.T) {
		lines, _ := classify(t, DefaultOptions(), unit("p", a, class("B")))
		assert.Equal(t, []string{
			"operation p.A +A(names: String...)",
			"operation p.A +find(id: long): B {static}",
		}, filter(lines, "operation"))
		assert.Equal(t, []string{
			"dependency p.A Widget",
			"dependency p.A String",
			"dependency p.A p.B",
		}, filter(lines, "dependency"))
	})

	t.Run("structural only", func(t *testing.T) {
		lines, res := classify(t, Options{ExternalDependencies: true}, unit("p", a, class("B")))
		assert.Empty(t, filter(lines, "operation"))
		assert.Equal(t, []string{"dependency p.A Widget"}, filter(lines, "dependency"))
		assert.Equal(t, 0, res.Operations)
	})

	t.Run("declared dependencies only", func(t *testing.T) {
		opts := DefaultOptions()
		opts.ExternalDependencies = false
		lines, res := classify(t, opts, unit("p", a, class("B")))
		assert.Equal(t, []string{"dependency p.A p.B"}, filter(lines, "dependency"))
		assert.Equal(t, 2, res.Suppressed)
	})
}

func TestClassify_KindsAndStereotypes(t *testing.T) {
	color := &corpus.TypeDecl{Name: "Color", Kind: corpus.KindEnum, Fields: []corpus.Field{
		{Name: "RED", Modifiers: []string{"public", "static", "final"}},
	}}
	point := &corpus.TypeDecl{Name: "Point", Kind: corpus.KindRecord, Fields: []corpus.Field{
		{Name: "x", Type: corpus.Primitive("int"), Component: true},
		{Name: "color", Type: corpus.NamedType("Color"), Component: true, Annotations: []string{"NotNull"}},
	}}
	shape := &corpus.TypeDecl{Name: "Shape", Kind: corpus.KindClass, Modifiers: []string{"public", "abstract"}, Annotations: []string{"Entity"}}

	lines, _ := classify(t, Options{}, unit("g", color, point, shape))

	assert.Equal(t, []string{
		"node g.Color enum",
		"attribute g.Color +RED {static}",
		"end g.Color",
		"node g.Point record <<record>>",
		"attribute g.Point ~x: int",
		"end g.Point",
		"node g.Shape class <<abstract>> <<@Entity>>",
		"end g.Shape",
		"association g.Point g.Color color <<@NotNull>>",
	}, lines)
}

// Every field is either an attribute line or an association, never both.
func TestClassify_ExactlyOneRepresentation(t *testing.T) {
	a := class("A")
	a.Fields = []corpus.Field{
		field("b", corpus.NamedType("B")),
		field("self", corpus.NamedType("A")),
		field("ext", corpus.NamedType("Unknown")),
		field("n", corpus.Primitive("int")),
		field("bs", corpus.ArrayOf(corpus.NamedType("B"), 1)),
		field("wrapped", corpus.NamedType("Optional", corpus.NamedType("B"))),
	}

	lines, res := classify(t, DefaultOptions(), unit("p", a, class("B")))

	for _, f := range a.Fields {
		attr := 0
		for _, l := range filter(lines, "attribute p.A ") {
			if strings.Contains(l, f.Name+":") {
				attr++
			}
		}
		assoc := 0
		for _, l := range filter(lines, "association p.A ") {
			if strings.HasSuffix(l, " "+f.Name) {
				assoc++
			}
		}
		assert.Equal(t, 1, attr+assoc, f.Name)
	}
	assert.Equal(t, 2, res.Associations)
	assert.Equal(t, 4, res.Attributes)
}

func TestClassify_DeterministicAcrossIngestionOrder(t *testing.T) {
	build := func() []*corpus.CompilationUnit {
		a := class("A")
		a.Fields = []corpus.Field{field("b", corpus.NamedType("B")), field("x", corpus.NamedType("X"))}
		a.Nested = []*corpus.TypeDecl{class("Inner")}
		b := class("B")
		b.Extends = []*corpus.TypeUsage{corpus.NamedType("A")}
		b.Usages = []corpus.Usage{{Context: corpus.UsageNew, Type: corpus.NamedType("Z")}}
		x1 := class("X")
		x2 := class("X")
		z := class("Z")
		z.Implements = []*corpus.TypeUsage{corpus.NamedType("Missing")}
		return []*corpus.CompilationUnit{
			unit("p", a), unit("p", b), unit("q", x1), unit("r", x2), unit("s", z),
		}
	}

	want, _ := classify(t, DefaultOptions(), build()...)
	require.NotEmpty(t, want)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		units := build()
		rng.Shuffle(len(units), func(i, j int) { units[i], units[j] = units[j], units[i] })
		got, _ := classify(t, DefaultOptions(), units...)
		assert.Equal(t, want, got)
	}
}

func TestClassify_PanicsWhenReused(t *testing.T) {
	b := index.NewBuilder(nil)
	b.IngestUnit(unit("p", class("A")))
	idx := b.Build()
	c := New(idx, resolver.New(idx, nil), DefaultOptions())

	var rec diagram.Recorder
	c.Classify(&rec)
	assert.Panics(t, func() { c.Classify(&rec) })
	assert.Equal(t, 0, c.Registry().Len())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Add(EdgeKey{From: "p.A", To: "p.B", Kind: Association, Role: "b"}))
	assert.True(t, r.Add(EdgeKey{From: "p.A", To: "p.B", Kind: Association, Role: "other"}))
	assert.False(t, r.Add(EdgeKey{From: "p.A", To: "p.B", Kind: Association, Role: "b"}))
	assert.False(t, r.Add(EdgeKey{From: "p.A", To: "p.A", Kind: Dependency}))
	assert.True(t, r.Add(EdgeKey{From: "p.A", To: "p.B", Kind: Dependency}))

	kind, ok := r.Connected("p.A", "p.B")
	assert.True(t, ok)
	assert.Equal(t, Association, kind)
	_, ok = r.Connected("p.B", "p.A")
	assert.False(t, ok)
	assert.True(t, r.Has(EdgeKey{From: "p.A", To: "p.B", Kind: Dependency}))
	assert.Equal(t, 3, r.Len())
}
