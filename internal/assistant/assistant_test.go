package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/blueprint/internal/errors"
	"github.com/xraph/blueprint/internal/generator"
	"github.com/xraph/blueprint/internal/template"
)

func newAssistant() *Assistant {
	return New(template.NewCatalog())
}

func TestReply_ExtractsFullRequestFromOneMessage(t *testing.T) {
	a := newAssistant()

	reply, err := a.Reply(context.Background(), ConversationState{},
		`I want a grpc service called "chat-api" with a go server and a typescript client`)
	require.NoError(t, err)

	assert.True(t, reply.Ready)
	assert.Empty(t, reply.Missing)
	require.NotNil(t, reply.Request)
	assert.Equal(t, &generator.GenerateRequest{
		ProjectName:    "chat-api",
		ProtocolType:   "grpc",
		ServerLanguage: "go",
		ClientLanguage: "typescript",
	}, reply.Request)
	assert.Contains(t, reply.Message, "chat-api")
}

func TestReply_AccumulatesAcrossTurns(t *testing.T) {
	a := newAssistant()
	ctx := context.Background()

	reply, err := a.Reply(ctx, ConversationState{}, "I need a websocket project")
	require.NoError(t, err)
	assert.False(t, reply.Ready)
	assert.Equal(t, "websocket", reply.State.ProtocolType)
	assert.Equal(t, []string{"projectName", "serverLanguage", "clientLanguage"}, reply.Missing)
	assert.Contains(t, reply.Message, "called")

	reply, err = a.Reply(ctx, reply.State, `It is called "pulse"`)
	require.NoError(t, err)
	assert.False(t, reply.Ready)
	assert.Equal(t, "pulse", reply.State.ProjectName)
	assert.Equal(t, []string{"serverLanguage", "clientLanguage"}, reply.Missing)

	reply, err = a.Reply(ctx, reply.State, "go on the server, typescript on the client")
	require.NoError(t, err)
	assert.True(t, reply.Ready)
	assert.Equal(t, "go", reply.State.ServerLanguage)
	assert.Equal(t, "typescript", reply.State.ClientLanguage)
	require.NotNil(t, reply.Request)
	assert.Equal(t, "pulse", reply.Request.ProjectName)
}

func TestReply_UnqualifiedLanguageFillsServerThenClient(t *testing.T) {
	a := newAssistant()

	reply, err := a.Reply(context.Background(), ConversationState{},
		`a rest api named orders in golang`)
	require.NoError(t, err)

	assert.Equal(t, "rest", reply.State.ProtocolType)
	assert.Equal(t, "orders", reply.State.ProjectName)
	assert.Equal(t, "go", reply.State.ServerLanguage)
	assert.Empty(t, reply.State.ClientLanguage)
	assert.Equal(t, []string{"clientLanguage"}, reply.Missing)
}

func TestReply_EarlierTurnsWin(t *testing.T) {
	a := newAssistant()
	state := ConversationState{
		ProjectName:  "pulse",
		ProtocolType: "grpc",
	}

	reply, err := a.Reply(context.Background(), state,
		`actually make it a rest service called "other" in typescript`)
	require.NoError(t, err)

	assert.Equal(t, "pulse", reply.State.ProjectName)
	assert.Equal(t, "grpc", reply.State.ProtocolType)
	assert.Equal(t, "typescript", reply.State.ServerLanguage)
}

func TestReply_SynonymsResolve(t *testing.T) {
	a := newAssistant()

	reply, err := a.Reply(context.Background(), ConversationState{},
		`a realtime service named pulse, node backend, ts frontend`)
	require.NoError(t, err)

	assert.True(t, reply.Ready)
	assert.Equal(t, "websocket", reply.State.ProtocolType)
	assert.Equal(t, "typescript", reply.State.ServerLanguage)
	assert.Equal(t, "typescript", reply.State.ClientLanguage)
}

func TestReply_EmptyMessageRejected(t *testing.T) {
	a := newAssistant()

	_, err := a.Reply(context.Background(), ConversationState{}, "   ")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
