package corpus

// CompilationUnit is one parsed source file.
type CompilationUnit struct {
	Path    string      `json:"path"`              // Source path, used for diagnostics and ordering
	Package string      `json:"package,omitempty"` // Declared package; empty for the default package
	Imports []Import    `json:"imports,omitempty"` // Import declarations in source order
	Types   []*TypeDecl `json:"types"`             // Top-level type declarations
}

// Import is a single import declaration.
type Import struct {
	Path     string `json:"path"`                // e.g. "java.util.List" or "java.util" for on-demand imports
	Static   bool   `json:"static,omitempty"`    // import static ...
	OnDemand bool   `json:"on_demand,omitempty"` // import pkg.*
}

// TypeDecl is a class, interface, enum, record or annotation declaration.
type TypeDecl struct {
	Name         string       `json:"name"`
	Kind         Kind         `json:"kind"`
	Modifiers    []string     `json:"modifiers,omitempty"`
	Annotations  []string     `json:"annotations,omitempty"` // Annotation names without '@'
	TypeParams   []TypeParam  `json:"type_params,omitempty"`
	Extends      []*TypeUsage `json:"extends,omitempty"`    // Superclass, or super-interfaces of an interface
	Implements   []*TypeUsage `json:"implements,omitempty"` // Implemented interfaces
	Fields       []Field      `json:"fields,omitempty"`     // Fields and record components
	Constructors []Method     `json:"constructors,omitempty"`
	Methods      []Method     `json:"methods,omitempty"`
	Usages       []Usage      `json:"usages,omitempty"` // Type mentions outside member declarations
	Nested       []*TypeDecl  `json:"nested,omitempty"` // Lexically nested declarations
	Line         int          `json:"line,omitempty"`
}

// TypeParam is a declared type parameter with its bounds.
type TypeParam struct {
	Name   string       `json:"name"`
	Bounds []*TypeUsage `json:"bounds,omitempty"`
}

// Field is a field declaration or a record component.
type Field struct {
	Name        string     `json:"name"`
	Type        *TypeUsage `json:"type"`
	Modifiers   []string   `json:"modifiers,omitempty"`
	Annotations []string   `json:"annotations,omitempty"`
	Component   bool       `json:"component,omitempty"` // Record component
}

// Method is a method or constructor declaration. Return is nil for constructors and void methods.
type Method struct {
	Name        string       `json:"name"`
	Params      []Param      `json:"params,omitempty"`
	Return      *TypeUsage   `json:"return,omitempty"`
	Throws      []*TypeUsage `json:"throws,omitempty"`
	Modifiers   []string     `json:"modifiers,omitempty"`
	Annotations []string     `json:"annotations,omitempty"`
}

// Param is a formal parameter.
type Param struct {
	Name     string     `json:"name"`
	Type     *TypeUsage `json:"type"`
	Variadic bool       `json:"variadic,omitempty"`
}

// UsageContext tells where a non-member type mention occurred.
type UsageContext string

const (
	UsageNew           UsageContext = "new"
	UsageCast          UsageContext = "cast"
	UsageInstanceOf    UsageContext = "instanceof"
	UsageClassLiteral  UsageContext = "class_literal"
	UsageStaticCall    UsageContext = "static_call"
	UsageArrayCreation UsageContext = "array_creation"
	UsageLocalVar      UsageContext = "local_var"
	UsageCatch         UsageContext = "catch"
)

// Usage is a type mentioned in a method body, initializer or other non-member context.
type Usage struct {
	Context UsageContext `json:"context"`
	Type    *TypeUsage   `json:"type"`
	Line    int          `json:"line,omitempty"`
}

// HasModifier reports whether mods contains m.
func HasModifier(mods []string, m string) bool {
	for _, x := range mods {
		if x == m {
			return true
		}
	}
	return false
}
