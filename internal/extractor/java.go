package extractor

import (
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"typeuml/internal/corpus"
)

var declKinds = map[string]corpus.Kind{
	"class_declaration":           corpus.KindClass,
	"interface_declaration":       corpus.KindInterface,
	"enum_declaration":            corpus.KindEnum,
	"record_declaration":          corpus.KindRecord,
	"annotation_type_declaration": corpus.KindAnnotation,
}

var primitiveTypes = map[string]bool{
	"integral_type":       true,
	"floating_point_type": true,
	"boolean_type":        true,
	"void_type":           true,
}

// referenceTypes are the type nodes that may start a method reference such as
// List<String>::new or int[]::new.
var referenceTypes = map[string]bool{
	"type_identifier":        true,
	"scoped_type_identifier": true,
	"generic_type":           true,
	"array_type":             true,
}

// typeScope maps the type parameters visible at a point to their bounds.
type typeScope struct {
	params map[string][]*corpus.TypeUsage
	parent *typeScope
}

func (s *typeScope) lookup(name string) ([]*corpus.TypeUsage, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.params[name]; ok {
			return b, true
		}
	}
	return nil, false
}

type javaWalker struct {
	src []byte
}

func (w *javaWalker) text(n *sitter.Node) string {
	return n.Content(w.src)
}

// compact drops whitespace and comments that may sit inside dotted names.
func (w *javaWalker) compact(n *sitter.Node) string {
	return strings.Join(strings.Fields(w.text(n)), "")
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for _, c := range namedChildren(n) {
		if c.Type() == typ {
			return c
		}
	}
	return nil
}

func (w *javaWalker) program(root *sitter.Node) *corpus.CompilationUnit {
	unit := &corpus.CompilationUnit{}
	for _, c := range namedChildren(root) {
		switch c.Type() {
		case "package_declaration":
			for _, part := range namedChildren(c) {
				if part.Type() == "identifier" || part.Type() == "scoped_identifier" {
					unit.Package = w.compact(part)
				}
			}
		case "import_declaration":
			unit.Imports = append(unit.Imports, w.importDecl(c))
		default:
			if _, ok := declKinds[c.Type()]; ok {
				unit.Types = append(unit.Types, w.typeDecl(c, nil))
			}
		}
	}
	return unit
}

func (w *javaWalker) importDecl(n *sitter.Node) corpus.Import {
	var imp corpus.Import
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		switch c.Type() {
		case "static":
			imp.Static = true
		case "asterisk":
			imp.OnDemand = true
		case "identifier", "scoped_identifier":
			imp.Path = w.compact(c)
		}
	}
	return imp
}

func (w *javaWalker) modifiers(n *sitter.Node) (mods, annotations []string) {
	m := childOfType(n, "modifiers")
	if m == nil {
		return nil, nil
	}
	for i := 0; i < int(m.ChildCount()); i++ {
		c := m.Child(i)
		switch {
		case c.Type() == "marker_annotation" || c.Type() == "annotation":
			if name := c.ChildByFieldName("name"); name != nil {
				annotations = append(annotations, w.compact(name))
			}
		case !c.IsNamed():
			mods = append(mods, c.Type())
		}
	}
	return mods, annotations
}

func (w *javaWalker) typeDecl(n *sitter.Node, outer *typeScope) *corpus.TypeDecl {
	d := &corpus.TypeDecl{Kind: declKinds[n.Type()], Line: line(n)}
	if name := n.ChildByFieldName("name"); name != nil {
		d.Name = w.text(name)
	}
	d.Modifiers, d.Annotations = w.modifiers(n)

	sc := outer
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		d.TypeParams, sc = w.typeParams(tp, outer)
	}

	switch d.Kind {
	case corpus.KindClass:
		if sup := n.ChildByFieldName("superclass"); sup != nil {
			for _, t := range namedChildren(sup) {
				d.Extends = appendUsage(d.Extends, w.typeUsage(t, sc))
			}
		}
		d.Implements = w.typeList(n.ChildByFieldName("interfaces"), sc)
	case corpus.KindInterface:
		d.Extends = w.typeList(childOfType(n, "extends_interfaces"), sc)
	case corpus.KindEnum:
		d.Implements = w.typeList(n.ChildByFieldName("interfaces"), sc)
	case corpus.KindRecord:
		d.Implements = w.typeList(n.ChildByFieldName("interfaces"), sc)
		for _, p := range w.params(n.ChildByFieldName("parameters"), sc) {
			d.Fields = append(d.Fields, corpus.Field{
				Name:      p.Name,
				Type:      p.Type,
				Modifiers: []string{"private", "final"},
				Component: true,
			})
		}
	}

	w.body(n.ChildByFieldName("body"), d, sc)
	return d
}

// typeList reads the types of a super_interfaces or extends_interfaces clause.
func (w *javaWalker) typeList(n *sitter.Node, sc *typeScope) []*corpus.TypeUsage {
	list := childOfType(n, "type_list")
	if list == nil {
		return nil
	}
	var out []*corpus.TypeUsage
	for _, t := range namedChildren(list) {
		out = appendUsage(out, w.typeUsage(t, sc))
	}
	return out
}

// typeParams registers the names first so bounds may refer to each other.
func (w *javaWalker) typeParams(n *sitter.Node, parent *typeScope) ([]corpus.TypeParam, *typeScope) {
	sc := &typeScope{params: make(map[string][]*corpus.TypeUsage), parent: parent}
	var nodes []*sitter.Node
	for _, c := range namedChildren(n) {
		if c.Type() != "type_parameter" {
			continue
		}
		nodes = append(nodes, c)
		if name := typeParamName(c); name != nil {
			sc.params[w.text(name)] = nil
		}
	}

	out := make([]corpus.TypeParam, 0, len(nodes))
	for _, c := range nodes {
		name := typeParamName(c)
		if name == nil {
			continue
		}
		tp := corpus.TypeParam{Name: w.text(name)}
		if bound := childOfType(c, "type_bound"); bound != nil {
			for _, t := range namedChildren(bound) {
				tp.Bounds = appendUsage(tp.Bounds, w.typeUsage(t, sc))
			}
		}
		out = append(out, tp)
	}
	for _, tp := range out {
		sc.params[tp.Name] = tp.Bounds
	}
	return out, sc
}

func typeParamName(n *sitter.Node) *sitter.Node {
	for _, c := range namedChildren(n) {
		if c.Type() == "type_identifier" || c.Type() == "identifier" {
			return c
		}
	}
	return nil
}

func (w *javaWalker) body(n *sitter.Node, d *corpus.TypeDecl, sc *typeScope) {
	for _, c := range namedChildren(n) {
		if _, ok := declKinds[c.Type()]; ok {
			d.Nested = append(d.Nested, w.typeDecl(c, sc))
			continue
		}
		switch c.Type() {
		case "field_declaration", "constant_declaration":
			w.field(c, d, sc)
		case "method_declaration", "annotation_type_element_declaration":
			w.method(c, d, sc)
		case "constructor_declaration", "compact_constructor_declaration":
			w.constructor(c, d, sc)
		case "enum_constant":
			w.enumConstant(c, d, sc)
		case "enum_body_declarations":
			w.body(c, d, sc)
		case "static_initializer", "block":
			w.usages(c, d, sc)
		}
	}
}

func (w *javaWalker) field(n *sitter.Node, d *corpus.TypeDecl, sc *typeScope) {
	mods, annos := w.modifiers(n)
	if d.Kind.IsInterface() {
		mods = withImplicit(mods, "public", "static", "final")
	}
	base := w.typeUsage(n.ChildByFieldName("type"), sc)
	for _, decl := range namedChildren(n) {
		if decl.Type() != "variable_declarator" {
			continue
		}
		f := corpus.Field{Type: base, Modifiers: mods, Annotations: annos}
		if name := decl.ChildByFieldName("name"); name != nil {
			f.Name = w.text(name)
		}
		if dims := countDims(decl.ChildByFieldName("dimensions")); dims > 0 {
			f.Type = corpus.ArrayOf(base, dims)
		}
		d.Fields = append(d.Fields, f)
		if value := decl.ChildByFieldName("value"); value != nil {
			w.usages(value, d, sc)
		}
	}
}

func (w *javaWalker) enumConstant(n *sitter.Node, d *corpus.TypeDecl, sc *typeScope) {
	f := corpus.Field{Modifiers: []string{"public", "static", "final"}}
	if name := n.ChildByFieldName("name"); name != nil {
		f.Name = w.text(name)
	}
	_, f.Annotations = w.modifiers(n)
	d.Fields = append(d.Fields, f)
	if args := n.ChildByFieldName("arguments"); args != nil {
		w.usages(args, d, sc)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		w.usages(body, d, sc)
	}
}

func (w *javaWalker) method(n *sitter.Node, d *corpus.TypeDecl, sc *typeScope) {
	m := corpus.Method{}
	m.Modifiers, m.Annotations = w.modifiers(n)
	if name := n.ChildByFieldName("name"); name != nil {
		m.Name = w.text(name)
	}
	msc := sc
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		_, msc = w.typeParams(tp, sc)
	}
	if t := n.ChildByFieldName("type"); t != nil && t.Type() != "void_type" {
		m.Return = w.typeUsage(t, msc)
		if dims := countDims(n.ChildByFieldName("dimensions")); dims > 0 {
			m.Return = corpus.ArrayOf(m.Return, dims)
		}
	}
	m.Params = w.params(n.ChildByFieldName("parameters"), msc)
	m.Throws = w.throws(n, msc)

	body := n.ChildByFieldName("body")
	if d.Kind.IsInterface() {
		if !corpus.HasModifier(m.Modifiers, "private") {
			m.Modifiers = withImplicit(m.Modifiers, "public")
		}
		if body == nil && !corpus.HasModifier(m.Modifiers, "static") {
			m.Modifiers = withImplicit(m.Modifiers, "abstract")
		}
	}
	d.Methods = append(d.Methods, m)
	if body != nil {
		w.usages(body, d, msc)
	}
}

func (w *javaWalker) constructor(n *sitter.Node, d *corpus.TypeDecl, sc *typeScope) {
	m := corpus.Method{Name: d.Name}
	m.Modifiers, m.Annotations = w.modifiers(n)
	msc := sc
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		_, msc = w.typeParams(tp, sc)
	}
	m.Params = w.params(n.ChildByFieldName("parameters"), msc)
	m.Throws = w.throws(n, msc)
	d.Constructors = append(d.Constructors, m)
	if body := n.ChildByFieldName("body"); body != nil {
		w.usages(body, d, msc)
	}
}

func (w *javaWalker) throws(n *sitter.Node, sc *typeScope) []*corpus.TypeUsage {
	t := childOfType(n, "throws")
	var out []*corpus.TypeUsage
	for _, c := range namedChildren(t) {
		out = appendUsage(out, w.typeUsage(c, sc))
	}
	return out
}

func (w *javaWalker) params(n *sitter.Node, sc *typeScope) []corpus.Param {
	var out []corpus.Param
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "formal_parameter":
			p := corpus.Param{Type: w.typeUsage(c.ChildByFieldName("type"), sc)}
			if name := c.ChildByFieldName("name"); name != nil {
				p.Name = w.text(name)
			}
			if dims := countDims(c.ChildByFieldName("dimensions")); dims > 0 {
				p.Type = corpus.ArrayOf(p.Type, dims)
			}
			out = append(out, p)
		case "spread_parameter":
			p := corpus.Param{Variadic: true}
			for _, part := range namedChildren(c) {
				switch part.Type() {
				case "modifiers":
				case "variable_declarator":
					if name := part.ChildByFieldName("name"); name != nil {
						p.Name = w.text(name)
					}
				default:
					if p.Type == nil {
						p.Type = w.typeUsage(part, sc)
					}
				}
			}
			out = append(out, p)
		}
	}
	return out
}

// typeUsage converts a type node to a raw usage. Identifiers naming a type
// parameter in scope become type variables.
func (w *javaWalker) typeUsage(n *sitter.Node, sc *typeScope) *corpus.TypeUsage {
	if n == nil {
		return nil
	}
	if primitiveTypes[n.Type()] {
		return corpus.Primitive(w.text(n))
	}
	switch n.Type() {
	case "type_identifier":
		name := w.text(n)
		if bounds, ok := sc.lookup(name); ok {
			return corpus.TypeVar(name, bounds...)
		}
		return corpus.NamedType(name)
	case "scoped_type_identifier":
		return corpus.NamedType(w.scopedName(n))
	case "generic_type":
		var u *corpus.TypeUsage
		var args []*corpus.TypeUsage
		for _, c := range namedChildren(n) {
			if c.Type() == "type_arguments" {
				for _, a := range namedChildren(c) {
					args = appendUsage(args, w.typeUsage(a, sc))
				}
				continue
			}
			if u == nil {
				u = w.typeUsage(c, sc)
			}
		}
		if u != nil && u.Kind == corpus.TypeNamed {
			u.Args = args
		}
		return u
	case "array_type":
		return corpus.ArrayOf(w.typeUsage(n.ChildByFieldName("element"), sc), countDims(n.ChildByFieldName("dimensions")))
	case "wildcard":
		var bound *corpus.TypeUsage
		lower := false
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			switch {
			case c.Type() == "super":
				lower = true
			case c.IsNamed() && c.Type() != "annotation" && c.Type() != "marker_annotation":
				bound = w.typeUsage(c, sc)
			}
		}
		if lower {
			bound = nil
		}
		return corpus.Wildcard(bound)
	case "annotated_type":
		kids := namedChildren(n)
		if len(kids) == 0 {
			return nil
		}
		return w.typeUsage(kids[len(kids)-1], sc)
	}
	return corpus.NamedType(w.compact(n))
}

// scopedName spells Outer<X>.Inner as "Outer.Inner".
func (w *javaWalker) scopedName(n *sitter.Node) string {
	var parts []string
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "type_identifier":
			parts = append(parts, w.text(c))
		case "scoped_type_identifier":
			parts = append(parts, w.scopedName(c))
		case "generic_type":
			if base := c.NamedChild(0); base != nil {
				if base.Type() == "scoped_type_identifier" {
					parts = append(parts, w.scopedName(base))
				} else {
					parts = append(parts, w.text(base))
				}
			}
		}
	}
	return strings.Join(parts, ".")
}

// appendUsage drops usages the walker could not spell.
func appendUsage(out []*corpus.TypeUsage, u *corpus.TypeUsage) []*corpus.TypeUsage {
	if u == nil {
		return out
	}
	return append(out, u)
}

func countDims(n *sitter.Node) int {
	if n == nil {
		return 0
	}
	dims := 0
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "[" {
			dims++
		}
	}
	return dims
}

// usages records the types mentioned inside n. Local and anonymous classes
// contribute to the enclosing type; local type declarations are not indexed.
func (w *javaWalker) usages(n *sitter.Node, d *corpus.TypeDecl, sc *typeScope) {
	if n == nil {
		return
	}
	add := func(ctx corpus.UsageContext, t *sitter.Node) {
		if u := w.typeUsage(t, sc); u != nil {
			d.Usages = append(d.Usages, corpus.Usage{Context: ctx, Type: u, Line: line(t)})
		}
	}

	switch n.Type() {
	case "object_creation_expression":
		add(corpus.UsageNew, n.ChildByFieldName("type"))
	case "array_creation_expression":
		add(corpus.UsageArrayCreation, n.ChildByFieldName("type"))
	case "cast_expression":
		add(corpus.UsageCast, n.ChildByFieldName("type"))
	case "instanceof_expression":
		add(corpus.UsageInstanceOf, n.ChildByFieldName("right"))
	case "class_literal":
		add(corpus.UsageClassLiteral, n.NamedChild(0))
	case "local_variable_declaration":
		if t := n.ChildByFieldName("type"); t != nil && w.text(t) != "var" {
			add(corpus.UsageLocalVar, t)
		}
	case "catch_formal_parameter":
		if ct := childOfType(n, "catch_type"); ct != nil {
			for _, t := range namedChildren(ct) {
				add(corpus.UsageCatch, t)
			}
		}
	case "method_invocation":
		if obj := n.ChildByFieldName("object"); obj != nil {
			if name, ok := w.staticTarget(obj); ok {
				d.Usages = append(d.Usages, corpus.Usage{Context: corpus.UsageStaticCall, Type: corpus.NamedType(name), Line: line(obj)})
			}
		}
	case "method_reference":
		if target := n.NamedChild(0); target != nil {
			if name, ok := w.staticTarget(target); ok {
				d.Usages = append(d.Usages, corpus.Usage{Context: corpus.UsageStaticCall, Type: corpus.NamedType(name), Line: line(target)})
			} else if referenceTypes[target.Type()] {
				add(corpus.UsageStaticCall, target)
			}
		}
	default:
		if _, local := declKinds[n.Type()]; local {
			return
		}
	}

	for _, c := range namedChildren(n) {
		w.usages(c, d, sc)
	}
}

// staticTarget recognizes Type.method() and pkg.Type.method() by the Java
// convention that type names are capitalized and variables are not.
func (w *javaWalker) staticTarget(n *sitter.Node) (string, bool) {
	if n.Type() != "identifier" && n.Type() != "field_access" {
		return "", false
	}
	name := w.compact(n)
	segments := strings.Split(name, ".")
	for _, s := range segments {
		if !isIdentifier(s) {
			return "", false
		}
	}
	last := segments[len(segments)-1]
	if !unicode.IsUpper([]rune(last)[0]) || isConstantName(last) {
		return "", false
	}
	return name, true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || r == '$' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// isConstantName reports ALL_CAPS names, which are fields rather than types.
func isConstantName(s string) bool {
	if len(s) < 2 {
		return false
	}
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
	}
	return true
}

func withImplicit(mods []string, implicit ...string) []string {
	out := mods
	for _, m := range implicit {
		if !corpus.HasModifier(out, m) {
			out = append(out, m)
		}
	}
	return out
}
