package openaiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawsitive-haven/assistant-api/internal/domain/assistant"
)

func newTestClient(t *testing.T, mux *http.ServeMux, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	opts.APIKey = "test-key"
	opts.BaseURL = srv.URL + "/v1"
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	return New(opts, zerolog.Nop())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func quotaError(w http.ResponseWriter) {
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"error": map[string]any{
			"message": "You exceeded your current quota, please check your plan and billing details.",
			"type":    "insufficient_quota",
			"code":    "insufficient_quota",
		},
	})
}

func TestCompleteChat(t *testing.T) {
	var got openai.ChatCompletionRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		writeJSON(w, http.StatusOK, map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "Adoption fees start at $50."}}},
		})
	})
	client := newTestClient(t, mux, Options{})

	reply, err := client.CompleteChat(context.Background(), []assistant.ChatMessage{
		{Role: assistant.RoleSystem, Content: "be helpful"},
		{Role: assistant.RoleUser, Content: "how much is adoption?"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Adoption fees start at $50.", reply)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "how much is adoption?", got.Messages[1].Content)
}

func TestCompleteChat_NoChoices(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "chatcmpl-1", "choices": []any{}})
	})
	client := newTestClient(t, mux, Options{})

	_, err := client.CompleteChat(context.Background(), nil)
	assert.ErrorIs(t, err, assistant.ErrNoReply)
}

func TestCompleteChat_QuotaIsTranslated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		quotaError(w)
	})
	client := newTestClient(t, mux, Options{})

	_, err := client.CompleteChat(context.Background(), nil)
	assert.ErrorIs(t, err, assistant.ErrQuotaExceeded)
}

func TestCompleteChat_BillingIsTranslated(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"billing code", map[string]any{"message": "Hard limit reached.", "type": "invalid_request_error", "code": "billing_hard_limit_reached"}},
		{"billing message", map[string]any{"message": "Your account is not active, please check your billing details.", "type": "invalid_request_error"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": tt.body})
			})
			client := newTestClient(t, mux, Options{})

			_, err := client.CompleteChat(context.Background(), nil)
			assert.ErrorIs(t, err, assistant.ErrQuotaExceeded)
		})
	}
}

func TestCompleteChat_ServerErrorIsNotQuota(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": map[string]any{"message": "The server had an error", "type": "server_error"},
		})
	})
	client := newTestClient(t, mux, Options{})

	_, err := client.CompleteChat(context.Background(), nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, assistant.ErrQuotaExceeded))
}

func TestThreadLifecycle(t *testing.T) {
	var postedMessage map[string]any
	var runRequest map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/threads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "thread_abc", "object": "thread"})
	})
	mux.HandleFunc("POST /v1/threads/{thread}/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "thread_abc", r.PathValue("thread"))
		_ = json.NewDecoder(r.Body).Decode(&postedMessage)
		writeJSON(w, http.StatusOK, map[string]any{"id": "msg_1", "role": "user"})
	})
	mux.HandleFunc("POST /v1/threads/{thread}/runs", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&runRequest)
		writeJSON(w, http.StatusOK, map[string]any{"id": "run_1", "status": "queued"})
	})
	mux.HandleFunc("GET /v1/threads/{thread}/runs/{run}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "run_1", r.PathValue("run"))
		writeJSON(w, http.StatusOK, map[string]any{"id": "run_1", "status": "completed"})
	})
	mux.HandleFunc("GET /v1/threads/{thread}/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"id": "msg_2", "role": "assistant", "content": []map[string]any{
					{"type": "text", "text": map[string]any{"value": "We are open 10 to 6.", "annotations": []any{}}},
				}},
				{"id": "msg_1", "role": "user", "content": []map[string]any{
					{"type": "text", "text": map[string]any{"value": "When are you open?", "annotations": []any{}}},
				}},
			},
		})
	})
	mux.HandleFunc("DELETE /v1/threads/{thread}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("thread"), "deleted": true})
	})
	client := newTestClient(t, mux, Options{AssistantID: "asst_1"})
	ctx := context.Background()

	threadID, err := client.CreateThread(ctx)
	require.NoError(t, err)
	assert.Equal(t, "thread_abc", threadID)

	require.NoError(t, client.AddUserMessage(ctx, threadID, "When are you open?"))
	assert.Equal(t, "user", postedMessage["role"])
	assert.Equal(t, "When are you open?", postedMessage["content"])

	run, err := client.CreateRun(ctx, threadID)
	require.NoError(t, err)
	assert.Equal(t, assistant.RunQueued, run.Status)
	assert.Equal(t, "asst_1", runRequest["assistant_id"])

	run, err = client.GetRun(ctx, threadID, run.ID)
	require.NoError(t, err)
	assert.Equal(t, assistant.RunCompleted, run.Status)

	messages, err := client.ListMessages(ctx, threadID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, assistant.ThreadMessage{Role: "assistant", Text: "We are open 10 to 6."}, messages[0])

	require.NoError(t, client.DeleteThread(ctx, threadID))
}

func TestCreateRun_RequiresAssistant(t *testing.T) {
	client := newTestClient(t, http.NewServeMux(), Options{})

	_, err := client.CreateRun(context.Background(), "thread_abc")
	assert.Error(t, err)
}

func TestGetRun_FailedWithQuotaError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/threads/{thread}/runs/{run}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":     "run_1",
			"status": "failed",
			"last_error": map[string]any{
				"code":    "rate_limit_exceeded",
				"message": "You exceeded your current quota.",
			},
		})
	})
	client := newTestClient(t, mux, Options{AssistantID: "asst_1"})

	run, err := client.GetRun(context.Background(), "thread_abc", "run_1")

	require.NoError(t, err)
	assert.Equal(t, assistant.RunFailed, run.Status)
	assert.Equal(t, "rate_limit_exceeded", run.ErrorCode)
	assert.Equal(t, "You exceeded your current quota.", run.ErrorText)
}

func TestMapRunStatus(t *testing.T) {
	tests := []struct {
		in   openai.RunStatus
		want assistant.RunStatus
	}{
		{openai.RunStatusQueued, assistant.RunQueued},
		{openai.RunStatusInProgress, assistant.RunInProgress},
		{openai.RunStatusCancelling, assistant.RunInProgress},
		{openai.RunStatusCompleted, assistant.RunCompleted},
		{openai.RunStatusCancelled, assistant.RunCancelled},
		{openai.RunStatusExpired, assistant.RunExpired},
		{openai.RunStatusFailed, assistant.RunFailed},
		{openai.RunStatus("requires_action"), assistant.RunFailed},
		{openai.RunStatus("something_new"), assistant.RunFailed},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, mapRunStatus(tt.in))
		})
	}
}

func TestValidateAssistant(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/assistants/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "asst_live" {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error": map[string]any{"message": "No assistant found", "type": "invalid_request_error"},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "asst_live", "name": "Pawsitive Haven Assistant"})
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := newTestClient(t, mux, Options{AssistantID: "asst_live"}).ValidateAssistant(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	})
	t.Run("missing", func(t *testing.T) {
		ok, err := newTestClient(t, mux, Options{AssistantID: "asst_gone"}).ValidateAssistant(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
	})
	t.Run("unset", func(t *testing.T) {
		ok, err := newTestClient(t, mux, Options{}).ValidateAssistant(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSetupAssistant(t *testing.T) {
	var got map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/assistants", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{"id": "asst_new"})
	})
	client := newTestClient(t, mux, Options{VectorStoreID: "vs_1"})

	id, err := client.SetupAssistant(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "asst_new", id)
	assert.Equal(t, defaultAssistantName, got["name"])
	assert.Equal(t, assistant.AssistantInstructions, got["instructions"])
	tools, ok := got["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	assert.Equal(t, "file_search", tools[0].(map[string]any)["type"])
	assert.Contains(t, got, "tool_resources")
}
