package parser

import sitter "github.com/smacker/go-tree-sitter"

// Parser defines the interface for Gemfile parsers
type Parser interface {
	GetLanguage() string
	Close()
	ParseFile(filePath string) (*ParseResult, error)
	ExtractSources(node *sitter.Node, source []byte) ([]SourceDeclaration, error)
}

// BaseParser provides common functionality for all language parsers
type BaseParser struct {
	parser   *sitter.Parser
	language *sitter.Language
	langName string
}

// ParseResult contains the parsed AST and metadata for a source file
type ParseResult struct {
	Tree     *sitter.Tree
	Source   []byte
	Language string
	FilePath string
}

// DeclarationKind tells how a source was declared in the Gemfile
type DeclarationKind string

const (
	DeclSource DeclarationKind = "source" // source "https://rubygems.org"
	DeclGit    DeclarationKind = "git"    // git "https://..." do ... end, or gem "x", git: "..."
)

// SourceDeclaration is a gem source URI written in a Gemfile
type SourceDeclaration struct {
	Kind DeclarationKind
	Name string // gem name for per-gem options, empty for blocks
	URI  string
	Line int
}
