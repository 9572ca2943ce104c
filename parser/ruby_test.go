package parser

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, src string) []SourceDeclaration {
	t.Helper()
	p, err := NewRubyParser()
	require.NoError(t, err)
	defer p.Close()

	result, err := p.Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	defer result.Tree.Close()

	decls, err := p.ExtractSources(result.Tree.RootNode(), result.Source)
	require.NoError(t, err)
	return decls
}

func TestExtractSourcesFromFixture(t *testing.T) {
	p, err := NewRubyParser()
	require.NoError(t, err)
	defer p.Close()

	result, err := p.ParseFile(filepath.Join("..", "testdata", "bundle", "insecure_sources", "Gemfile"))
	require.NoError(t, err)
	assert.Equal(t, "ruby", result.Language)

	decls, err := p.ExtractSources(result.Tree.RootNode(), result.Source)
	require.NoError(t, err)

	assert.Equal(t, []SourceDeclaration{
		{Kind: DeclSource, URI: "http://rubygems.org", Line: 1},
		{Kind: DeclGit, Name: "jquery-rails", URI: "git://github.com/rails/jquery-rails.git", Line: 4},
	}, decls)
}

func TestExtractSourcesForms(t *testing.T) {
	src := `source "https://rubygems.org"
source("https://gems.example.com") do
  gem "private_gem"
end

git "git://github.com/rails/rails.git", branch: "main" do
  gem "activesupport"
end

gem "rack", :git => "http://example.com/rack.git"
gem "thor", { "source" => "http://gems.example.com" }
gem "nokogiri", github: "sparklemotion/nokogiri"
gem "local", path: "vendor/local"
gem "dynamic", git: "https://#{ENV['HOST']}/dynamic.git"
Bundler.source "http://ignored.example.com"
`

	decls := extract(t, src)
	assert.Equal(t, []SourceDeclaration{
		{Kind: DeclSource, URI: "https://rubygems.org", Line: 1},
		{Kind: DeclSource, URI: "https://gems.example.com", Line: 2},
		{Kind: DeclGit, URI: "git://github.com/rails/rails.git", Line: 6},
		{Kind: DeclGit, Name: "rack", URI: "http://example.com/rack.git", Line: 10},
		{Kind: DeclSource, Name: "thor", URI: "http://gems.example.com", Line: 11},
	}, decls)
}

func TestExtractSourcesEmpty(t *testing.T) {
	assert.Empty(t, extract(t, "# nothing here\n"))
}

func TestCreateParser(t *testing.T) {
	for _, name := range []string{"Gemfile", "Gemfile.next", "gems.rb", "rails.gemfile", filepath.Join("app", "Gemfile")} {
		p, err := CreateParser(name)
		require.NoError(t, err, name)
		assert.Equal(t, "ruby", p.GetLanguage())
		p.Close()
	}

	_, err := CreateParser("package.json")
	assert.Error(t, err)
}

func TestSymbolName(t *testing.T) {
	assert.Equal(t, "git", symbolName("git:"))
	assert.Equal(t, "git", symbolName(":git"))
	assert.Equal(t, "git", symbolName(`"git"`))
}
