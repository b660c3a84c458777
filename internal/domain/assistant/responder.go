package assistant

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pawsitive-haven/assistant-api/internal/domain/conversation"
	"pawsitive-haven/assistant-api/internal/domain/faq"
)

// Responder produces the assistant's reply for the latest user message of
// conv. The message is already appended to conv and persisted.
type Responder interface {
	Respond(ctx context.Context, conv *conversation.Conversation, userText string) (string, error)
	Name() string
}

// ChatMessage is one entry of a one-shot completion request.
type ChatMessage struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatCompleter is the one-shot completion port of the AI service.
type ChatCompleter interface {
	CompleteChat(ctx context.Context, messages []ChatMessage) (string, error)
}

// ThreadMessage is a message read back from an external thread.
type ThreadMessage struct {
	Role string
	Text string
}

// ThreadClient is the threads and runs port of the AI service.
type ThreadClient interface {
	RunFetcher
	CreateThread(ctx context.Context) (string, error)
	AddUserMessage(ctx context.Context, threadID, content string) error
	CreateRun(ctx context.Context, threadID string) (Run, error)
	// ListMessages returns up to limit messages, newest first.
	ListMessages(ctx context.Context, threadID string, limit int) ([]ThreadMessage, error)
	DeleteThread(ctx context.Context, threadID string) error
}

const (
	StrategyStateful  = "stateful"
	StrategyStateless = "stateless"

	replyScanLimit       = 10
	DefaultHistoryWindow = 20
	DefaultFAQLimit      = 15
)

// StatefulResponder keeps context on a persistent external thread.
type StatefulResponder struct {
	threads       ThreadClient
	poller        *RunPoller
	conversations conversation.Repository
	log           zerolog.Logger
}

func NewStatefulResponder(threads ThreadClient, poller *RunPoller, conversations conversation.Repository, log zerolog.Logger) *StatefulResponder {
	return &StatefulResponder{
		threads:       threads,
		poller:        poller,
		conversations: conversations,
		log:           log.With().Str("component", "stateful-responder").Logger(),
	}
}

func (r *StatefulResponder) Name() string { return StrategyStateful }

func (r *StatefulResponder) Respond(ctx context.Context, conv *conversation.Conversation, userText string) (string, error) {
	threadID, err := r.ensureThread(ctx, conv)
	if err != nil {
		return "", err
	}

	if err := r.threads.AddUserMessage(ctx, threadID, userText); err != nil {
		return "", external("add message", err)
	}

	run, err := r.threads.CreateRun(ctx, threadID)
	if err != nil {
		return "", external("create run", err)
	}

	if _, err := r.poller.Await(ctx, threadID, run); err != nil {
		return "", err
	}

	messages, err := r.threads.ListMessages(ctx, threadID, replyScanLimit)
	if err != nil {
		return "", external("list messages", err)
	}
	for _, m := range messages {
		if m.Role == RoleAssistant {
			return m.Text, nil
		}
	}
	return "", ErrNoReply
}

// ensureThread creates the external thread on the first turn and stores its
// handle on the conversation for good.
func (r *StatefulResponder) ensureThread(ctx context.Context, conv *conversation.Conversation) (string, error) {
	if conv.ThreadID != "" {
		return conv.ThreadID, nil
	}

	threadID, err := r.threads.CreateThread(ctx)
	if err != nil {
		return "", external("create thread", err)
	}
	if err := conv.AssignThread(threadID); err != nil {
		return "", err
	}
	if err := r.conversations.Update(ctx, conv); err != nil {
		return "", err
	}
	r.log.Debug().Uint("conversation_id", conv.ID).Str("thread_id", threadID).Msg("thread created")
	return threadID, nil
}

// StatelessResponder replays the recent history on every turn.
type StatelessResponder struct {
	completer     ChatCompleter
	faqs          faq.Repository
	historyWindow int
	faqLimit      int
	timeout       time.Duration
	log           zerolog.Logger
}

func NewStatelessResponder(completer ChatCompleter, faqs faq.Repository, historyWindow, faqLimit int, timeout time.Duration, log zerolog.Logger) *StatelessResponder {
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	if faqLimit < 0 {
		faqLimit = DefaultFAQLimit
	}
	return &StatelessResponder{
		completer:     completer,
		faqs:          faqs,
		historyWindow: historyWindow,
		faqLimit:      faqLimit,
		timeout:       timeout,
		log:           log.With().Str("component", "stateless-responder").Logger(),
	}
}

func (r *StatelessResponder) Name() string { return StrategyStateless }

func (r *StatelessResponder) Respond(ctx context.Context, conv *conversation.Conversation, _ string) (string, error) {
	messages := r.BuildMessages(ctx, conv)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	reply, err := r.completer.CompleteChat(ctx, messages)
	if err != nil {
		return "", external("chat completion", err)
	}
	if reply == "" {
		return "", ErrNoReply
	}
	return reply, nil
}

// BuildMessages assembles the system prompt and the last historyWindow
// messages of conv, oldest first. FAQ lookup failures only drop the FAQ block.
func (r *StatelessResponder) BuildMessages(ctx context.Context, conv *conversation.Conversation) []ChatMessage {
	var faqs []faq.FAQ
	if r.faqs != nil && r.faqLimit > 0 {
		active, err := r.faqs.GetActive(ctx)
		if err != nil {
			r.log.Warn().Err(err).Msg("faq lookup failed, prompting without faqs")
		} else {
			faqs = active
		}
	}

	history := conv.RecentMessages(r.historyWindow)
	messages := make([]ChatMessage, 0, len(history)+1)
	messages = append(messages, ChatMessage{Role: RoleSystem, Content: BuildSystemPrompt(faqs, r.faqLimit)})
	for _, m := range history {
		role := RoleUser
		if m.Role == conversation.RoleAssistant {
			role = RoleAssistant
		}
		messages = append(messages, ChatMessage{Role: role, Content: m.Content})
	}
	return messages
}
