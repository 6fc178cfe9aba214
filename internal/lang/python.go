package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Python is the name the Python grammar is registered under.
const Python = "python"

func init() {
	Languages[Python] = &Language{
		Name:           Python,
		Extensions:     []string{".py", ".pyi"},
		lang:           python.GetLanguage(),
		DefinitionName: pythonDefinitionName,
		ClassMethods:   pythonClassMethods,
		IsAsync:        pythonIsAsync,
		Unwrap:         pythonUnwrap,
	}
}

func pythonDefinitionName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return NodeText(name, source)
	}
	// Older grammar builds expose the name only as the first identifier.
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" {
			return NodeText(child, source)
		}
	}
	return ""
}

// pythonClassMethods collects plain and decorated function definitions
// that are direct children of the class body block.
func pythonClassMethods(classNode *sitter.Node, source []byte) []string {
	methods := []string{}
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return methods
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		def := pythonUnwrap(body.NamedChild(i))
		if def == nil || def.Type() != "function_definition" {
			continue
		}
		if name := pythonDefinitionName(def, source); name != "" {
			methods = append(methods, name)
		}
	}
	return methods
}

func pythonIsAsync(funcNode *sitter.Node) bool {
	if funcNode.ChildCount() == 0 {
		return false
	}
	return funcNode.Child(0).Type() == "async"
}

// pythonUnwrap strips decorated_definition wrappers:
// decorated_definition -> function_definition | class_definition.
func pythonUnwrap(node *sitter.Node) *sitter.Node {
	for node != nil && node.Type() == "decorated_definition" {
		def := node.ChildByFieldName("definition")
		if def == nil {
			return node
		}
		node = def
	}
	return node
}
