// Package schemaprompt supports providers without schema-constrained
// decoding: the JSON Schema is sent as an instruction and the reply is
// cleaned before the caller validates it.
package schemaprompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
)

// Instruction returns a system prompt fragment asking for a JSON object
// matching schema.
func Instruction(schema map[string]any) (string, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	return "Respond with a single JSON object that validates against this JSON Schema. " +
		"Output only the JSON, with no prose.\n" + string(schemaJSON), nil
}

// Apply appends the schema instruction to the system messages, adding a
// system message when there is none.
func Apply(messages []driven.ChatMessage, schema map[string]any) ([]driven.ChatMessage, error) {
	instruction, err := Instruction(schema)
	if err != nil {
		return nil, err
	}

	out := make([]driven.ChatMessage, 0, len(messages)+1)
	applied := false
	for _, msg := range messages {
		if msg.Role == driven.RoleSystem && !applied {
			msg.Content += "\n\n" + instruction
			applied = true
		}
		out = append(out, msg)
	}
	if !applied {
		out = append([]driven.ChatMessage{{Role: driven.RoleSystem, Content: instruction}}, out...)
	}
	return out, nil
}

// StripCodeFence removes a surrounding ``` or ```json fence.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
