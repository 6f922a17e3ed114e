package project

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/blueprint/internal/errors"
)

func createProject(t *testing.T, s *Store, ownerID, name string) *Project {
	t.Helper()

	p, err := s.Create(context.Background(), ownerID, CreateInput{
		Name:           name,
		ProtocolType:   "grpc",
		ServerLanguage: "go",
		ClientLanguage: "typescript",
	})
	require.NoError(t, err)

	return p
}

func TestStore_CreateAssignsIDAndDraftStatus(t *testing.T) {
	s := NewStore()

	p := createProject(t, s, "u1", "chat-api")

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "u1", p.OwnerID)
	assert.Equal(t, StatusDraft, p.Status)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestStore_CreateValidatesInput(t *testing.T) {
	s := NewStore()

	_, err := s.Create(context.Background(), "u1", CreateInput{})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = s.Create(context.Background(), "", CreateInput{Name: "x"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestStore_GetReturnsOwnProject(t *testing.T) {
	s := NewStore()
	created := createProject(t, s, "u1", "chat-api")

	got, err := s.Get(context.Background(), "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "chat-api", got.Name)
}

func TestStore_GetByNonOwnerLooksLikeNotFound(t *testing.T) {
	s := NewStore()
	created := createProject(t, s, "u1", "chat-api")

	_, err := s.Get(context.Background(), "u2", created.ID)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = s.Get(context.Background(), "u1", "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestStore_ListFiltersToOwner(t *testing.T) {
	s := NewStore()
	p1 := createProject(t, s, "u1", "one")
	p2 := createProject(t, s, "u1", "two")
	createProject(t, s, "u2", "other")

	got := s.List(context.Background(), "u1")
	require.Len(t, got, 2)

	ids := []string{got[0].ID, got[1].ID}
	assert.ElementsMatch(t, []string{p1.ID, p2.ID}, ids)

	assert.Empty(t, s.List(context.Background(), "u3"))
}

func TestStore_UpdateAppliesPartialFields(t *testing.T) {
	s := NewStore()
	created := createProject(t, s, "u1", "chat-api")

	name := "chat-api-v2"
	desc := "realtime chat scaffold"
	got, err := s.Update(context.Background(), "u1", created.ID, UpdateInput{
		Name:        &name,
		Description: &desc,
	})
	require.NoError(t, err)

	assert.Equal(t, "chat-api-v2", got.Name)
	assert.Equal(t, "realtime chat scaffold", got.Description)
	assert.Equal(t, "grpc", got.ProtocolType)
	assert.False(t, got.UpdatedAt.Before(created.UpdatedAt))
}

func TestStore_UpdateByNonOwnerForbidden(t *testing.T) {
	s := NewStore()
	created := createProject(t, s, "u1", "chat-api")

	name := "hijacked"
	_, err := s.Update(context.Background(), "u2", created.ID, UpdateInput{Name: &name})
	require.Error(t, err)
	assert.True(t, errors.IsForbidden(err))
}

func TestStore_UpdateRejectsEmptyName(t *testing.T) {
	s := NewStore()
	created := createProject(t, s, "u1", "chat-api")

	empty := ""
	_, err := s.Update(context.Background(), "u1", created.ID, UpdateInput{Name: &empty})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestStore_DeleteRemovesProject(t *testing.T) {
	s := NewStore()
	created := createProject(t, s, "u1", "chat-api")

	require.NoError(t, s.Delete(context.Background(), "u1", created.ID))

	_, err := s.Get(context.Background(), "u1", created.ID)
	assert.True(t, errors.IsNotFound(err))

	err = s.Delete(context.Background(), "u1", created.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestStore_DeleteByNonOwnerForbidden(t *testing.T) {
	s := NewStore()
	created := createProject(t, s, "u1", "chat-api")

	err := s.Delete(context.Background(), "u2", created.ID)
	require.Error(t, err)
	assert.True(t, errors.IsForbidden(err))
}

func TestStore_SetStatusTransitions(t *testing.T) {
	s := NewStore()
	created := createProject(t, s, "u1", "chat-api")

	require.NoError(t, s.SetStatus(context.Background(), created.ID, StatusBuilding))
	require.NoError(t, s.SetStatus(context.Background(), created.ID, StatusReady))

	got, err := s.Get(context.Background(), "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, got.Status)

	err = s.SetStatus(context.Background(), "missing", StatusFailed)
	assert.True(t, errors.IsNotFound(err))
}

func TestStore_ReturnsCopies(t *testing.T) {
	s := NewStore()
	created := createProject(t, s, "u1", "chat-api")

	created.Name = "mutated locally"

	got, err := s.Get(context.Background(), "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "chat-api", got.Name)
}
