// Package generator renders project scaffolds from the template
// catalog. Generation is pure: no I/O, no state, the same request
// always yields the same files.
package generator

import (
	"fmt"
	"strings"
	texttemplate "text/template"
	"unicode"

	"github.com/xraph/blueprint/internal/errors"
	"github.com/xraph/blueprint/internal/template"
)

// GenerateRequest names what to scaffold.
type GenerateRequest struct {
	ProjectName    string `json:"projectName"`
	ProtocolType   string `json:"protocolType"`
	ServerLanguage string `json:"serverLanguage"`
	ClientLanguage string `json:"clientLanguage"`
}

// File is one rendered scaffold file.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// GeneratedProject is the rendered scaffold plus setup instructions.
type GeneratedProject struct {
	ProjectName  string `json:"projectName"`
	ProtocolType string `json:"protocolType"`
	Files        []File `json:"files"`
	Instructions string `json:"instructions"`
}

// Generator renders scaffolds from a catalog.
type Generator struct {
	catalog *template.Catalog
}

// New creates a generator backed by the catalog.
func New(catalog *template.Catalog) *Generator {
	return &Generator{catalog: catalog}
}

// templateData is the substitution context for scaffold templates.
type templateData struct {
	ProjectName string
	ModuleName  string
	PackageName string
	TypeName    string
	EnvPrefix   string
}

// Generate renders the scaffold for the request.
func (g *Generator) Generate(req GenerateRequest) (*GeneratedProject, error) {
	if req.ProjectName == "" {
		return nil, errors.ErrValidationError("projectName", errors.New("project name is required"))
	}

	words := splitWords(req.ProjectName)
	if len(words) == 0 {
		return nil, errors.ErrValidationError("projectName", errors.New("project name needs at least one letter or digit"))
	}

	tmpl, err := g.catalog.GetByProtocol(req.ProtocolType)
	if err != nil {
		return nil, err
	}

	for field, lang := range map[string]string{
		"serverLanguage": req.ServerLanguage,
		"clientLanguage": req.ClientLanguage,
	} {
		if lang == "" {
			return nil, errors.ErrValidationError(field, errors.New("language is required"))
		}
		if !tmpl.Supports(lang) {
			return nil, errors.ErrValidationError(field,
				fmt.Errorf("template %s supports %s", tmpl.ID, strings.Join(tmpl.Languages, ", ")))
		}
	}

	data := templateData{
		ProjectName: req.ProjectName,
		ModuleName:  strings.ToLower(strings.Join(words, "-")),
		PackageName: strings.ToLower(strings.Join(words, "")),
		TypeName:    typeName(words),
		EnvPrefix:   strings.ToUpper(strings.Join(words, "_")) + "_",
	}

	files := make([]File, 0, len(tmpl.Files))
	for _, f := range tmpl.Files {
		if !includeFile(f, req) {
			continue
		}

		path, err := render(f.Path, f.Path, data)
		if err != nil {
			return nil, err
		}
		content, err := render(f.Path, f.Content, data)
		if err != nil {
			return nil, err
		}

		files = append(files, File{Path: path, Content: content})
	}

	return &GeneratedProject{
		ProjectName:  req.ProjectName,
		ProtocolType: req.ProtocolType,
		Files:        files,
		Instructions: instructions(req),
	}, nil
}

func includeFile(f template.File, req GenerateRequest) bool {
	switch f.Role {
	case template.RoleServer:
		return f.Language == req.ServerLanguage
	case template.RoleClient:
		return f.Language == req.ClientLanguage
	default:
		return true
	}
}

func render(name, source string, data templateData) (string, error) {
	t, err := texttemplate.New(name).Parse(source)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}

	var buf strings.Builder
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}

	return buf.String(), nil
}

func instructions(req GenerateRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Getting started with %s (%s):\n\n", req.ProjectName, req.ProtocolType)

	step := 1
	if req.ProtocolType == "grpc" {
		fmt.Fprintf(&b, "%d. Generate stubs from the proto contract:\n", step)
		b.WriteString("   protoc --go_out=. --go-grpc_out=. proto/*.proto\n")
		step++
	}

	fmt.Fprintf(&b, "%d. Run the server:\n", step)
	b.WriteString(runSteps("server", req.ServerLanguage))
	step++

	fmt.Fprintf(&b, "%d. Run the client:\n", step)
	b.WriteString(runSteps("client", req.ClientLanguage))

	return b.String()
}

func runSteps(dir, language string) string {
	switch language {
	case "typescript":
		return fmt.Sprintf("   cd %s && npm install && npm start\n", dir)
	default:
		return fmt.Sprintf("   cd %s && go mod init && go mod tidy && go run .\n", dir)
	}
}

// splitWords breaks a project name into lowercase-safe word chunks,
// dropping everything that is not a letter or digit.
func splitWords(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func typeName(words []string) string {
	var b strings.Builder
	for _, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}

	return b.String()
}
