// Package assistant turns free-form chat messages into build requests.
// Extraction is rule-based and deterministic: keyword matching against
// the template catalog's protocols and languages, plus a couple of
// naming patterns. No model calls.
package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/xraph/blueprint/internal/errors"
	"github.com/xraph/blueprint/internal/generator"
	"github.com/xraph/blueprint/internal/template"
)

// ConversationState accumulates what the assistant has learned so far.
// The caller round-trips it between turns.
type ConversationState struct {
	ProjectName    string `json:"projectName,omitempty"`
	ProtocolType   string `json:"protocolType,omitempty"`
	ServerLanguage string `json:"serverLanguage,omitempty"`
	ClientLanguage string `json:"clientLanguage,omitempty"`
}

// Reply is one assistant turn. Ready flips once every field is known,
// at which point Request carries a build-ready GenerateRequest.
type Reply struct {
	Message string                     `json:"message"`
	State   ConversationState          `json:"state"`
	Missing []string                   `json:"missing,omitempty"`
	Ready   bool                       `json:"ready"`
	Request *generator.GenerateRequest `json:"request,omitempty"`
}

// Assistant extracts scaffold requirements from chat messages.
type Assistant struct {
	catalog *template.Catalog
}

// New creates an assistant that validates extractions against the
// catalog.
func New(catalog *template.Catalog) *Assistant {
	return &Assistant{catalog: catalog}
}

var protocolSynonyms = map[string]string{
	"grpc":      "grpc",
	"protobuf":  "grpc",
	"rest":      "rest",
	"http":      "rest",
	"openapi":   "rest",
	"websocket": "websocket",
	"ws":        "websocket",
	"realtime":  "websocket",
}

var languageSynonyms = map[string]string{
	"go":         "go",
	"golang":     "go",
	"typescript": "typescript",
	"ts":         "typescript",
	"node":       "typescript",
}

var (
	namedQuotedPattern = regexp.MustCompile(`(?i)\b(?:called|named)\s+"([^"]+)"`)
	namedBarePattern   = regexp.MustCompile(`(?i)\b(?:called|named)\s+([A-Za-z0-9][A-Za-z0-9_-]*)`)
	quotedPattern      = regexp.MustCompile(`"([^"]+)"`)
	wordPattern        = regexp.MustCompile(`[a-z0-9]+`)
)

// Reply processes one user message against the accumulated state.
func (a *Assistant) Reply(_ context.Context, state ConversationState, userMessage string) (Reply, error) {
	if strings.TrimSpace(userMessage) == "" {
		return Reply{}, errors.ErrValidationError("message", errors.New("message is required"))
	}

	a.extract(&state, userMessage)

	missing := missingFields(state)
	reply := Reply{
		State:   state,
		Missing: missing,
	}

	if len(missing) > 0 {
		reply.Message = prompt(state, missing)
		return reply, nil
	}

	reply.Ready = true
	reply.Request = &generator.GenerateRequest{
		ProjectName:    state.ProjectName,
		ProtocolType:   state.ProtocolType,
		ServerLanguage: state.ServerLanguage,
		ClientLanguage: state.ClientLanguage,
	}
	reply.Message = fmt.Sprintf(
		"All set: %s will be a %s project with a %s server and a %s client. Start the build whenever you are ready.",
		state.ProjectName, state.ProtocolType, state.ServerLanguage, state.ClientLanguage)

	return reply, nil
}

// extract fills state fields found in the message. Earlier turns win:
// a field set in the state is never overwritten.
func (a *Assistant) extract(state *ConversationState, message string) {
	lower := strings.ToLower(message)
	words := wordPattern.FindAllString(lower, -1)

	if state.ProtocolType == "" {
		for _, w := range words {
			proto, ok := protocolSynonyms[w]
			if !ok {
				continue
			}
			if _, err := a.catalog.GetByProtocol(proto); err == nil {
				state.ProtocolType = proto
				break
			}
		}
	}

	for i, w := range words {
		lang, ok := languageSynonyms[w]
		if !ok {
			continue
		}

		switch side(words, i) {
		case "server":
			if state.ServerLanguage == "" {
				state.ServerLanguage = lang
			}
		case "client":
			if state.ClientLanguage == "" {
				state.ClientLanguage = lang
			}
		default:
			// Unqualified language fills the server first, then the
			// client ("in go" describes the whole stack).
			if state.ServerLanguage == "" {
				state.ServerLanguage = lang
			} else if state.ClientLanguage == "" {
				state.ClientLanguage = lang
			}
		}
	}

	if state.ProjectName == "" {
		state.ProjectName = extractName(message)
	}
}

var connectorWords = map[string]bool{
	"in":      true,
	"on":      true,
	"using":   true,
	"with":    true,
	"written": true,
}

// side resolves which side a language mention describes: a qualifier
// right after it ("go server", "typescript client") or before it
// through a connector ("server in go"). Anything else is unqualified.
func side(words []string, i int) string {
	if q := qualifierAt(words, i+1); q != "" {
		return q
	}
	if q := qualifierAt(words, i+2); q != "" {
		return q
	}
	if i >= 2 && connectorWords[words[i-1]] {
		return qualifierAt(words, i-2)
	}

	return ""
}

func qualifierAt(words []string, i int) string {
	if i < 0 || i >= len(words) {
		return ""
	}

	switch words[i] {
	case "server", "backend":
		return "server"
	case "client", "frontend":
		return "client"
	}

	return ""
}

func extractName(message string) string {
	for _, p := range []*regexp.Regexp{namedQuotedPattern, namedBarePattern, quotedPattern} {
		if m := p.FindStringSubmatch(message); m != nil {
			return strings.TrimSpace(m[1])
		}
	}

	return ""
}

func missingFields(state ConversationState) []string {
	missing := make([]string, 0, 4)
	if state.ProjectName == "" {
		missing = append(missing, "projectName")
	}
	if state.ProtocolType == "" {
		missing = append(missing, "protocolType")
	}
	if state.ServerLanguage == "" {
		missing = append(missing, "serverLanguage")
	}
	if state.ClientLanguage == "" {
		missing = append(missing, "clientLanguage")
	}

	return missing
}

func prompt(state ConversationState, missing []string) string {
	switch missing[0] {
	case "projectName":
		return `What should the project be called? Say something like: a project called "chat-api".`
	case "protocolType":
		return "Which protocol should it use: grpc, rest, or websocket?"
	case "serverLanguage":
		return "Which language should the server use: go or typescript?"
	default:
		return fmt.Sprintf("Which language should the client use for %s: go or typescript?",
			state.ProjectName)
	}
}
