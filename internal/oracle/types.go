package oracle

import (
	"context"
	"encoding/json"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool describes a callable tool exposed to the oracle.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the function portion of a tool definition.
type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolCall is one tool invocation returned by the oracle.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolReply bundles the oracle's text reply with any tool calls.
type ToolReply struct {
	Content   string
	ToolCalls []ToolCall
}

// Client is the language-model collaborator. Every analyzer prompt expects a
// JSON object somewhere in the reply; use ExtractJSON to pull it out.
type Client interface {
	// Complete performs a plain completion with an optional system prompt.
	Complete(ctx context.Context, prompt, system string) (string, error)

	// CompleteWithTools performs a tool-calling completion over a message
	// window. The reply text is sanitized; if it still carries meta-commentary
	// markers after sanitization, one corrective retry is attempted before
	// the best available text is returned.
	CompleteWithTools(ctx context.Context, system string, messages []Message, tools []Tool) (*ToolReply, error)
}
