package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"
)

// sourceOptions are the gem options that name a remote URI
var sourceOptions = map[string]DeclarationKind{
	"git":    DeclGit,
	"source": DeclSource,
}

type RubyParser struct {
	BaseParser
}

func NewRubyParser() (*RubyParser, error) {
	parser := sitter.NewParser()
	language := ruby.GetLanguage()
	parser.SetLanguage(language)

	return &RubyParser{
		BaseParser: BaseParser{
			parser:   parser,
			language: language,
			langName: "ruby",
		},
	}, nil
}

func (p *RubyParser) ParseFile(filePath string) (*ParseResult, error) {
	return p.ParseFileGeneric(filePath)
}

// ExtractSources finds source blocks, git blocks and per-gem git:/source: options.
// Only literal strings are reported; interpolated URIs cannot be checked statically.
func (p *RubyParser) ExtractSources(node *sitter.Node, source []byte) ([]SourceDeclaration, error) {
	var decls []SourceDeclaration

	WalkAST(node, source, func(n *sitter.Node) {
		if n.Type() != "call" && n.Type() != "method_call" {
			return
		}
		if n.ChildByFieldName("receiver") != nil {
			return
		}
		method := n.ChildByFieldName("method")
		args := n.ChildByFieldName("arguments")
		if method == nil || args == nil {
			return
		}

		switch NodeText(method, source) {
		case "source":
			if uri, ok := p.firstString(args, source); ok {
				decls = append(decls, SourceDeclaration{Kind: DeclSource, URI: uri, Line: line(n)})
			}
		case "git":
			if uri, ok := p.firstString(args, source); ok {
				decls = append(decls, SourceDeclaration{Kind: DeclGit, URI: uri, Line: line(n)})
			}
		case "gem":
			decls = append(decls, p.gemOptions(n, args, source)...)
		}
	})

	return deduplicateSources(decls), nil
}

func (p *RubyParser) gemOptions(call, args *sitter.Node, source []byte) []SourceDeclaration {
	name, ok := p.firstString(args, source)
	if !ok {
		return nil
	}

	var decls []SourceDeclaration
	for _, pair := range p.pairs(args) {
		key := pair.ChildByFieldName("key")
		value := pair.ChildByFieldName("value")
		if key == nil || value == nil {
			continue
		}

		kind, known := sourceOptions[symbolName(NodeText(key, source))]
		if !known {
			continue
		}
		uri, ok := literalString(value, source)
		if !ok {
			continue
		}
		decls = append(decls, SourceDeclaration{Kind: kind, Name: name, URI: uri, Line: line(call)})
	}
	return decls
}

// pairs returns key/value arguments whether written bare or inside braces
func (p *RubyParser) pairs(args *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(i)
		switch child.Type() {
		case "pair":
			out = append(out, child)
		case "hash":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				if grand := child.NamedChild(j); grand.Type() == "pair" {
					out = append(out, grand)
				}
			}
		}
	}
	return out
}

func (p *RubyParser) firstString(args *sitter.Node, source []byte) (string, bool) {
	if args.NamedChildCount() == 0 {
		return "", false
	}
	return literalString(args.NamedChild(0), source)
}

// literalString accepts plain string literals without interpolation
func literalString(n *sitter.Node, source []byte) (string, bool) {
	if n.Type() != "string" {
		return "", false
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == "interpolation" {
			return "", false
		}
	}
	return ExtractStringValue(n, source), true
}

func line(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}
