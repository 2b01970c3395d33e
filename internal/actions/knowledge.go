package actions

import (
	"context"
	"encoding/json"

	"github.com/solohub/braind/pkg/schema"
)

const updateKnowledgeSchema = `{
  "type": "object",
  "additionalProperties": true
}`

// UpdateKnowledgeHandler acknowledges a knowledge update request. The
// knowledge graph lives outside this service, so the handler records the
// payload in the action result for downstream consumers.
type UpdateKnowledgeHandler struct{}

// NewUpdateKnowledgeHandler creates the handler.
func NewUpdateKnowledgeHandler() *UpdateKnowledgeHandler {
	return &UpdateKnowledgeHandler{}
}

func (h *UpdateKnowledgeHandler) Name() string { return schema.ActionUpdateKnowledge }

func (h *UpdateKnowledgeHandler) Schema() HandlerSchema {
	return HandlerSchema{
		PayloadSchema: json.RawMessage(updateKnowledgeSchema),
		Description:   "Acknowledge a knowledge update and echo the payload.",
	}
}

func (h *UpdateKnowledgeHandler) Execute(_ context.Context, input HandlerInput) (*HandlerOutput, error) {
	payload := input.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return &HandlerOutput{Result: map[string]any{
		"updated": true,
		"payload": payload,
	}}, nil
}
