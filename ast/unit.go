package ast

// CompilationUnit is the root of a parsed source file's AST: compilation-
// unit-scope usings (spec.md §4.2 lookup order item 5) plus top-level
// namespace declarations.
type CompilationUnit struct {
	Base
	File       string
	Usings     []*UsingDirective
	Namespaces []*Namespace
}

func (c *CompilationUnit) Kind() Kind { return KindInvalid }
func (c *CompilationUnit) Children() []Node {
	out := make([]Node, 0, len(c.Usings)+len(c.Namespaces))
	for _, u := range c.Usings {
		out = append(out, u)
	}
	for _, n := range c.Namespaces {
		out = append(out, n)
	}
	return out
}
