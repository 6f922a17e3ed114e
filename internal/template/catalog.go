// Package template holds the built-in scaffold catalog: one template
// per protocol type, each carrying the file bodies the generator
// renders. Bodies are text/template sources; the generator owns
// parsing and execution.
package template

import (
	"sync"

	"github.com/xraph/blueprint/internal/errors"
)

// Role says which side of the scaffold a file belongs to. Shared files
// are always emitted; server and client files are filtered by the
// requested language.
type Role string

const (
	RoleShared Role = "shared"
	RoleServer Role = "server"
	RoleClient Role = "client"
)

// File is one renderable scaffold file. Path and Content are
// text/template sources. Language is empty for shared files.
type File struct {
	Path     string `json:"path"`
	Role     Role   `json:"role"`
	Language string `json:"language,omitempty"`
	Content  string `json:"-"`
}

// Template describes one protocol scaffold and the languages it
// supports.
type Template struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	ProtocolType string   `json:"protocolType"`
	Languages    []string `json:"languages"`
	Description  string   `json:"description"`
	Files        []File   `json:"files"`
}

// Supports reports whether the template can emit code in the language.
func (t *Template) Supports(language string) bool {
	for _, l := range t.Languages {
		if l == language {
			return true
		}
	}

	return false
}

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	ProtocolType string
	Language     string
}

// Catalog is a read-mostly template store seeded with the built-in
// scaffolds.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]*Template
	order     []string
}

// NewCatalog creates a catalog seeded with the built-in templates.
func NewCatalog() *Catalog {
	c := &Catalog{
		templates: make(map[string]*Template),
	}

	for _, t := range builtinTemplates() {
		c.templates[t.ID] = t
		c.order = append(c.order, t.ID)
	}

	return c
}

// List returns templates matching the filter in catalog order.
func (c *Catalog) List(filter Filter) []*Template {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Template, 0, len(c.order))
	for _, id := range c.order {
		t := c.templates[id]
		if filter.ProtocolType != "" && t.ProtocolType != filter.ProtocolType {
			continue
		}
		if filter.Language != "" && !t.Supports(filter.Language) {
			continue
		}
		out = append(out, t)
	}

	return out
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (*Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.templates[id]
	if !ok {
		return nil, errors.ErrTemplateNotFound(id)
	}

	return t, nil
}

// GetByProtocol returns the template for a protocol type.
func (c *Catalog) GetByProtocol(protocolType string) (*Template, error) {
	c.mu.RLock()
	for _, t := range c.templates {
		if t.ProtocolType == protocolType {
			c.mu.RUnlock()
			return t, nil
		}
	}
	c.mu.RUnlock()

	return nil, errors.ErrTemplateNotFound(protocolType)
}
