package openaiclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"pawsitive-haven/assistant-api/internal/domain/assistant"
)

// Options configures the client.
type Options struct {
	APIKey        string
	BaseURL       string
	Model         string
	AssistantID   string
	VectorStoreID string
	AssistantName string
}

// Client adapts go-openai to the completion and thread ports.
type Client struct {
	api  *openai.Client
	opts Options
	log  zerolog.Logger
}

var (
	_ assistant.ChatCompleter = (*Client)(nil)
	_ assistant.ThreadClient  = (*Client)(nil)
)

func New(opts Options, log zerolog.Logger) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	return &Client{
		api:  openai.NewClientWithConfig(cfg),
		opts: opts,
		log:  log.With().Str("component", "openai-client").Logger(),
	}
}

// AssistantID is the configured assistant, empty in stateless deployments.
func (c *Client) AssistantID() string {
	return c.opts.AssistantID
}

func (c *Client) CompleteChat(ctx context.Context, messages []assistant.ChatMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.opts.Model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", translate(err)
	}
	if len(resp.Choices) == 0 {
		return "", assistant.ErrNoReply
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", translate(err)
	}
	return thread.ID, nil
}

func (c *Client) AddUserMessage(ctx context.Context, threadID, content string) error {
	_, err := c.api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: content,
	})
	return translate(err)
}

func (c *Client) CreateRun(ctx context.Context, threadID string) (assistant.Run, error) {
	if c.opts.AssistantID == "" {
		return assistant.Run{}, errors.New("no assistant configured")
	}
	run, err := c.api.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: c.opts.AssistantID})
	if err != nil {
		return assistant.Run{}, translate(err)
	}
	return toRun(run), nil
}

func (c *Client) GetRun(ctx context.Context, threadID, runID string) (assistant.Run, error) {
	run, err := c.api.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return assistant.Run{}, translate(err)
	}
	return toRun(run), nil
}

func (c *Client) ListMessages(ctx context.Context, threadID string, limit int) ([]assistant.ThreadMessage, error) {
	order := "desc"
	list, err := c.api.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return nil, translate(err)
	}

	out := make([]assistant.ThreadMessage, 0, len(list.Messages))
	for _, m := range list.Messages {
		var parts []string
		for _, content := range m.Content {
			if content.Text != nil && content.Text.Value != "" {
				parts = append(parts, content.Text.Value)
			}
		}
		out = append(out, assistant.ThreadMessage{Role: m.Role, Text: strings.Join(parts, "\n")})
	}
	return out, nil
}

func (c *Client) DeleteThread(ctx context.Context, threadID string) error {
	_, err := c.api.DeleteThread(ctx, threadID)
	return translate(err)
}

func toRun(run openai.Run) assistant.Run {
	out := assistant.Run{ID: run.ID, Status: mapRunStatus(run.Status)}
	if run.LastError != nil {
		out.ErrorCode = string(run.LastError.Code)
		out.ErrorText = run.LastError.Message
	}
	return out
}

// mapRunStatus folds the service's statuses onto the run state machine.
// Anything needing client action is treated as failed; no tools here
// require it.
func mapRunStatus(status openai.RunStatus) assistant.RunStatus {
	switch status {
	case openai.RunStatusQueued:
		return assistant.RunQueued
	case openai.RunStatusInProgress, openai.RunStatusCancelling:
		return assistant.RunInProgress
	case openai.RunStatusCompleted:
		return assistant.RunCompleted
	case openai.RunStatusCancelled:
		return assistant.RunCancelled
	case openai.RunStatusExpired:
		return assistant.RunExpired
	default:
		return assistant.RunFailed
	}
}

// translate marks quota and billing failures with assistant.ErrQuotaExceeded.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if apiErr.Code != nil {
			code = fmt.Sprint(apiErr.Code)
		}
		if assistant.IsQuotaText(code + " " + apiErr.Type + " " + apiErr.Message) {
			return fmt.Errorf("%w: %s", assistant.ErrQuotaExceeded, apiErr.Message)
		}
	}
	return err
}
