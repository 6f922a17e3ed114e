package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/blueprint/internal/errors"
	"github.com/xraph/blueprint/internal/template"
)

func newGenerator() *Generator {
	return New(template.NewCatalog())
}

func grpcRequest() GenerateRequest {
	return GenerateRequest{
		ProjectName:    "Chat API",
		ProtocolType:   "grpc",
		ServerLanguage: "go",
		ClientLanguage: "typescript",
	}
}

func filePaths(g *GeneratedProject) []string {
	paths := make([]string, 0, len(g.Files))
	for _, f := range g.Files {
		paths = append(paths, f.Path)
	}

	return paths
}

func TestGenerate_SelectsFilesByLanguage(t *testing.T) {
	got, err := newGenerator().Generate(grpcRequest())
	require.NoError(t, err)

	paths := filePaths(got)
	assert.Contains(t, paths, "README.md")
	assert.Contains(t, paths, "proto/chat-api.proto")
	assert.Contains(t, paths, "server/main.go")
	assert.Contains(t, paths, "client/src/client.ts")
	assert.NotContains(t, paths, "server/src/server.ts")
	assert.NotContains(t, paths, "client/client.go")
}

func TestGenerate_SubstitutesProjectName(t *testing.T) {
	got, err := newGenerator().Generate(grpcRequest())
	require.NoError(t, err)

	for _, f := range got.Files {
		assert.NotContains(t, f.Content, "{{", "unrendered template in %s", f.Path)
	}

	var proto File
	for _, f := range got.Files {
		if f.Path == "proto/chat-api.proto" {
			proto = f
		}
	}
	assert.Contains(t, proto.Content, "package chatapi;")
	assert.Contains(t, proto.Content, "service ChatApiService")
}

func TestGenerate_IsDeterministic(t *testing.T) {
	g := newGenerator()

	first, err := g.Generate(grpcRequest())
	require.NoError(t, err)
	second, err := g.Generate(grpcRequest())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerate_InstructionsMatchRequest(t *testing.T) {
	got, err := newGenerator().Generate(grpcRequest())
	require.NoError(t, err)

	assert.Contains(t, got.Instructions, "protoc")
	assert.Contains(t, got.Instructions, "go run .")
	assert.Contains(t, got.Instructions, "npm install")

	rest, err := newGenerator().Generate(GenerateRequest{
		ProjectName:    "orders",
		ProtocolType:   "rest",
		ServerLanguage: "typescript",
		ClientLanguage: "typescript",
	})
	require.NoError(t, err)
	assert.NotContains(t, rest.Instructions, "protoc")
	assert.False(t, strings.Contains(rest.Instructions, "go run ."))
}

func TestGenerate_RejectsMissingName(t *testing.T) {
	_, err := newGenerator().Generate(GenerateRequest{ProtocolType: "rest"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = newGenerator().Generate(GenerateRequest{
		ProjectName:    "!!!",
		ProtocolType:   "rest",
		ServerLanguage: "go",
		ClientLanguage: "go",
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestGenerate_RejectsUnknownProtocol(t *testing.T) {
	_, err := newGenerator().Generate(GenerateRequest{
		ProjectName:    "orders",
		ProtocolType:   "graphql",
		ServerLanguage: "go",
		ClientLanguage: "go",
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestGenerate_RejectsUnsupportedLanguage(t *testing.T) {
	_, err := newGenerator().Generate(GenerateRequest{
		ProjectName:    "orders",
		ProtocolType:   "rest",
		ServerLanguage: "rust",
		ClientLanguage: "go",
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
