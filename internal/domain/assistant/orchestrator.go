package assistant

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pawsitive-haven/assistant-api/internal/domain/conversation"
	"pawsitive-haven/assistant-api/internal/domain/guard"
	"pawsitive-haven/assistant-api/internal/domain/ratelimit"
)

// RateGate is the subset of the rate limiter a chat turn uses.
type RateGate interface {
	Check(ctx context.Context, userID string) ratelimit.Decision
	RecordRequest(ctx context.Context, userID string)
	RecordViolation(ctx context.Context, userID string) bool
}

// InputGuard validates and sanitizes raw user text.
type InputGuard interface {
	ValidateWithFinding(raw string) (guard.ValidationResult, guard.Finding)
}

// ChatRequest is one user turn. A nil ConversationID starts a conversation.
type ChatRequest struct {
	UserID         string
	Message        string
	ConversationID *uint
}

// ChatResult is the outcome of SendChat. Failures carry a user-facing
// message and a kind; internal detail stays in the logs.
type ChatResult struct {
	Success        bool
	Reply          string
	ConversationID uint
	ErrorMessage   string
	Kind           ErrorKind
	RetryAfter     time.Duration

	// Signal is a low-cardinality label for metrics: the limit window or the
	// injection category.
	Signal   string
	Strategy string
	Leaked   bool
	BanStart bool
}

func failure(kind ErrorKind, message string) ChatResult {
	return ChatResult{Kind: kind, ErrorMessage: message}
}

// Orchestrator runs the chat turn protocol around the selected Responder.
type Orchestrator struct {
	limiter       RateGate
	guard         InputGuard
	conversations conversation.Repository
	locker        ConversationLocker
	responder     Responder
	filter        *OutputFilter
	now           func() time.Time
	tracer        trace.Tracer
	log           zerolog.Logger
}

// OrchestratorOption customises an Orchestrator.
type OrchestratorOption func(*Orchestrator)

func WithOrchestratorClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func NewOrchestrator(
	limiter RateGate,
	inputGuard InputGuard,
	conversations conversation.Repository,
	locker ConversationLocker,
	responder Responder,
	filter *OutputFilter,
	log zerolog.Logger,
	opts ...OrchestratorOption,
) *Orchestrator {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	if filter == nil {
		filter = NewOutputFilter()
	}
	o := &Orchestrator{
		limiter:       limiter,
		guard:         inputGuard,
		conversations: conversations,
		locker:        locker,
		responder:     responder,
		filter:        filter,
		now:           time.Now,
		tracer:        otel.Tracer("pawsitive-haven/assistant-api/assistant"),
		log:           log.With().Str("component", "chat-orchestrator").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Strategy names the active Responder.
func (o *Orchestrator) Strategy() string {
	return o.responder.Name()
}

// SendChat runs one turn: quota, validation, ownership, persistence of the
// user message, the reply strategy, output filtering and persistence of the
// reply. It never returns internal error detail to the caller.
func (o *Orchestrator) SendChat(ctx context.Context, req ChatRequest) ChatResult {
	ctx, span := o.tracer.Start(ctx, "assistant.SendChat", trace.WithAttributes(
		attribute.String("assistant.strategy", o.responder.Name()),
		attribute.Bool("assistant.new_conversation", req.ConversationID == nil),
	))
	defer span.End()

	result := o.sendChat(ctx, req)
	result.Strategy = o.responder.Name()

	span.SetAttributes(attribute.String("assistant.outcome", outcomeLabel(result)))
	if !result.Success {
		span.SetStatus(codes.Error, string(result.Kind))
	}
	return result
}

func (o *Orchestrator) sendChat(ctx context.Context, req ChatRequest) ChatResult {
	log := o.log.With().Str("user_id", req.UserID).Logger()

	decision := o.limiter.Check(ctx, req.UserID)
	if !decision.Allowed() {
		kind := KindRateLimited
		if decision.Outcome == ratelimit.OutcomeBanned {
			kind = KindBanned
		}
		result := failure(kind, decision.Message)
		result.RetryAfter = decision.RetryAfter
		result.Signal = string(decision.Window)
		log.Info().Str("outcome", decision.Outcome.String()).Str("window", string(decision.Window)).Msg("chat turn throttled")
		return result
	}

	validation, finding := o.guard.ValidateWithFinding(req.Message)
	if !validation.IsAccepted() {
		if validation.Reason().IsAdversarial() {
			result := failure(KindValidationAdversarial, validation.Message())
			result.Signal = string(finding.Category)
			result.BanStart = o.limiter.RecordViolation(ctx, req.UserID)
			return result
		}
		result := failure(KindValidationLength, validation.Message())
		result.Signal = string(validation.Reason())
		return result
	}

	o.limiter.RecordRequest(ctx, req.UserID)
	text := validation.Text()

	conv, unlock, failed := o.openConversation(ctx, req, text)
	if failed != nil {
		return *failed
	}
	defer unlock()

	conv.Append(conversation.RoleUser, text, o.now())
	if err := o.conversations.Update(ctx, conv); err != nil {
		log.Error().Err(err).Uint("conversation_id", conv.ID).Msg("failed to store user message")
		return failure(KindUnknown, MessageUnknown)
	}

	reply, err := o.responder.Respond(ctx, conv, text)
	if err != nil {
		kind, message := classify(err)
		log.Error().Err(err).Uint("conversation_id", conv.ID).Str("kind", string(kind)).Msg("assistant reply failed")
		result := failure(kind, message)
		result.ConversationID = conv.ID
		return result
	}

	filtered, leaked := o.filter.Filter(reply)
	if leaked {
		log.Warn().Uint("conversation_id", conv.ID).Msg("reply contained instruction text, replaced with refusal")
	}
	if filtered == "" {
		result := failure(KindExternalFailure, MessageExternalFailure)
		result.ConversationID = conv.ID
		return result
	}

	conv.Append(conversation.RoleAssistant, filtered, o.now())
	if err := o.conversations.Update(ctx, conv); err != nil {
		log.Error().Err(err).Uint("conversation_id", conv.ID).Msg("failed to store assistant reply")
		result := failure(KindUnknown, MessageUnknown)
		result.ConversationID = conv.ID
		return result
	}

	return ChatResult{
		Success:        true,
		Reply:          filtered,
		ConversationID: conv.ID,
		Leaked:         leaked,
	}
}

// openConversation loads and locks the requested conversation, or creates a
// new one. Ownership is checked before the lock is taken and again after the
// reload, so a foreign id never reaches the AI service.
func (o *Orchestrator) openConversation(ctx context.Context, req ChatRequest, text string) (*conversation.Conversation, func(), *ChatResult) {
	if req.ConversationID == nil {
		conv := conversation.New(req.UserID, text)
		if err := o.conversations.Add(ctx, conv); err != nil {
			o.log.Error().Err(err).Str("user_id", req.UserID).Msg("failed to create conversation")
			r := failure(KindUnknown, MessageUnknown)
			return nil, nil, &r
		}
		unlock, err := o.locker.Lock(ctx, conversationLockKey(conv.ID))
		if err != nil {
			r := failure(KindConversationBusy, MessageBusy)
			return nil, nil, &r
		}
		return conv, unlock, nil
	}

	id := *req.ConversationID
	head, err := o.conversations.GetByID(ctx, id)
	if r := o.lookupFailure(req.UserID, id, head, err); r != nil {
		return nil, nil, r
	}

	unlock, err := o.locker.Lock(ctx, conversationLockKey(id))
	if err != nil {
		o.log.Warn().Err(err).Uint("conversation_id", id).Msg("conversation lock not acquired")
		r := failure(KindConversationBusy, MessageBusy)
		return nil, nil, &r
	}

	conv, err := o.conversations.GetByIDWithMessages(ctx, id)
	if r := o.lookupFailure(req.UserID, id, conv, err); r != nil {
		unlock()
		return nil, nil, r
	}
	return conv, unlock, nil
}

func (o *Orchestrator) lookupFailure(userID string, id uint, conv *conversation.Conversation, err error) *ChatResult {
	var r ChatResult
	switch {
	case errors.Is(err, conversation.ErrNotFound):
		r = failure(KindNotFound, MessageNotFound)
	case err != nil:
		o.log.Error().Err(err).Uint("conversation_id", id).Msg("failed to load conversation")
		r = failure(KindUnknown, MessageUnknown)
	case !conv.OwnedBy(userID):
		o.log.Warn().Str("user_id", userID).Uint("conversation_id", id).Msg("conversation access denied")
		r = failure(KindAccessDenied, MessageAccessDenied)
	default:
		return nil
	}
	return &r
}

func outcomeLabel(r ChatResult) string {
	if r.Success {
		return "success"
	}
	return string(r.Kind)
}
