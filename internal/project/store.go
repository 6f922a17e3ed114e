// Package project holds project metadata in memory. Projects are
// volatile: the store is rebuilt empty on every process start.
package project

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/blueprint/internal/errors"
)

// Status is the project build lifecycle state.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusBuilding Status = "building"
	StatusReady    Status = "ready"
	StatusFailed   Status = "failed"
)

// Project describes one scaffolding project.
type Project struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OwnerID        string    `json:"ownerId"`
	ProtocolType   string    `json:"protocolType"`
	ServerLanguage string    `json:"serverLanguage"`
	ClientLanguage string    `json:"clientLanguage"`
	Description    string    `json:"description,omitempty"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CreateInput carries the caller-supplied fields for a new project.
type CreateInput struct {
	Name           string `json:"name"`
	ProtocolType   string `json:"protocolType"`
	ServerLanguage string `json:"serverLanguage"`
	ClientLanguage string `json:"clientLanguage"`
	Description    string `json:"description"`
}

// UpdateInput carries a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name           *string `json:"name"`
	ProtocolType   *string `json:"protocolType"`
	ServerLanguage *string `json:"serverLanguage"`
	ClientLanguage *string `json:"clientLanguage"`
	Description    *string `json:"description"`
}

// Store is an in-memory project store. Reads by non-owners report
// not-found so project ids do not leak across users; mutations by
// non-owners report forbidden.
type Store struct {
	mu       sync.RWMutex
	projects map[string]*Project
}

// NewStore creates an empty project store.
func NewStore() *Store {
	return &Store{
		projects: make(map[string]*Project),
	}
}

// Create adds a project owned by ownerID in status draft.
func (s *Store) Create(_ context.Context, ownerID string, input CreateInput) (*Project, error) {
	if ownerID == "" {
		return nil, errors.ErrValidationError("ownerId", errors.New("owner id is required"))
	}
	if input.Name == "" {
		return nil, errors.ErrValidationError("name", errors.New("project name is required"))
	}

	now := time.Now()
	p := &Project{
		ID:             uuid.New().String(),
		Name:           input.Name,
		OwnerID:        ownerID,
		ProtocolType:   input.ProtocolType,
		ServerLanguage: input.ServerLanguage,
		ClientLanguage: input.ClientLanguage,
		Description:    input.Description,
		Status:         StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	s.mu.Lock()
	s.projects[p.ID] = p
	s.mu.Unlock()

	return copyProject(p), nil
}

// Get returns the project if it exists and belongs to ownerID.
func (s *Store) Get(_ context.Context, ownerID, projectID string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[projectID]
	if !ok || p.OwnerID != ownerID {
		return nil, errors.ErrProjectNotFound(projectID)
	}

	return copyProject(p), nil
}

// List returns the owner's projects, newest first.
func (s *Store) List(_ context.Context, ownerID string) []*Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Project, 0)
	for _, p := range s.projects {
		if p.OwnerID == ownerID {
			out = append(out, copyProject(p))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out
}

// Update applies a partial update to the owner's project.
func (s *Store) Update(_ context.Context, ownerID, projectID string, input UpdateInput) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return nil, errors.ErrProjectNotFound(projectID)
	}
	if p.OwnerID != ownerID {
		return nil, errors.ErrProjectForbidden(projectID)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, errors.ErrValidationError("name", errors.New("project name is required"))
		}
		p.Name = *input.Name
	}
	if input.ProtocolType != nil {
		p.ProtocolType = *input.ProtocolType
	}
	if input.ServerLanguage != nil {
		p.ServerLanguage = *input.ServerLanguage
	}
	if input.ClientLanguage != nil {
		p.ClientLanguage = *input.ClientLanguage
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	p.UpdatedAt = time.Now()

	return copyProject(p), nil
}

// Delete removes the owner's project.
func (s *Store) Delete(_ context.Context, ownerID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return errors.ErrProjectNotFound(projectID)
	}
	if p.OwnerID != ownerID {
		return errors.ErrProjectForbidden(projectID)
	}

	delete(s.projects, projectID)

	return nil
}

// SetStatus transitions a project's lifecycle state. The build
// pipeline calls this without caller identity, so there is no owner
// check.
func (s *Store) SetStatus(_ context.Context, projectID string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[projectID]
	if !ok {
		return errors.ErrProjectNotFound(projectID)
	}

	p.Status = status
	p.UpdatedAt = time.Now()

	return nil
}

func copyProject(p *Project) *Project {
	out := *p
	return &out
}
