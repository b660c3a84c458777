package openaiclient

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"pawsitive-haven/assistant-api/internal/domain/assistant"
)

const defaultAssistantName = "Pawsitive Haven Assistant"

// ValidateAssistant reports whether the configured assistant exists. A
// missing id or a 404 is (false, nil); other failures are returned.
func (c *Client) ValidateAssistant(ctx context.Context) (bool, error) {
	if c.opts.AssistantID == "" {
		return false, nil
	}

	a, err := c.api.RetrieveAssistant(ctx, c.opts.AssistantID)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound {
			c.log.Warn().Str("assistant_id", c.opts.AssistantID).Msg("assistant not found")
			return false, nil
		}
		return false, translate(err)
	}

	name := ""
	if a.Name != nil {
		name = *a.Name
	}
	c.log.Info().Str("assistant_id", a.ID).Str("name", name).Msg("assistant validated")
	return true, nil
}

// SetupAssistant creates an assistant with the hardened instructions and
// file search over the configured vector store, returning its id.
func (c *Client) SetupAssistant(ctx context.Context) (string, error) {
	name := c.opts.AssistantName
	if name == "" {
		name = defaultAssistantName
	}
	instructions := assistant.AssistantInstructions

	req := openai.AssistantRequest{
		Model:        c.opts.Model,
		Name:         &name,
		Instructions: &instructions,
		Tools:        []openai.AssistantTool{{Type: openai.AssistantToolTypeFileSearch}},
	}
	if c.opts.VectorStoreID != "" {
		req.ToolResources = &openai.AssistantToolResource{
			FileSearch: &openai.AssistantToolFileSearch{VectorStoreIDs: []string{c.opts.VectorStoreID}},
		}
	} else {
		c.log.Warn().Msg("no vector store configured, file search will have no knowledge base")
	}

	created, err := c.api.CreateAssistant(ctx, req)
	if err != nil {
		return "", translate(err)
	}
	c.log.Info().Str("assistant_id", created.ID).Str("model", c.opts.Model).Msg("assistant created")
	return created.ID, nil
}
