package pyast

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Definition is a function or method definition, async ones included.
type Definition struct {
	Name string
	// StartLine includes attached decorator lines.
	StartLine int
	DefLine   int
	EndLine   int
	Depth     int
}

// Contains reports whether line lies inside the definition.
func (d Definition) Contains(line int) bool {
	return d.StartLine <= line && line <= d.EndLine
}

// Within reports whether d lies inside other.
func (d Definition) Within(other Definition) bool {
	return other.StartLine <= d.StartLine && d.EndLine <= other.EndLine
}

// Functions lists every function definition in the tree in document order.
func (t *Tree) Functions() []Definition {
	var defs []Definition

	Walk(t.Root(), func(n *sitter.Node) bool {
		if n.Kind() != "function_definition" {
			return true
		}
		start, end := LineRange(n)
		def := Definition{DefLine: start, StartLine: start, EndLine: end}
		if name := n.ChildByFieldName("name"); name != nil {
			def.Name = t.Text(name)
		}
		if parent := n.Parent(); parent != nil && parent.Kind() == "decorated_definition" {
			def.StartLine, _ = LineRange(parent)
		}
		for _, d := range defs {
			if def.Within(d) {
				def.Depth++
			}
		}
		defs = append(defs, def)
		return true
	})
	return defs
}
