package v1

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pawsitive-haven/assistant-api/internal/infrastructure/auth"
	"pawsitive-haven/assistant-api/internal/interfaces/httpserver/handlers"
	"pawsitive-haven/assistant-api/internal/utils/platformerrors"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
	authn    gin.HandlerFunc
	log      zerolog.Logger
}

// NewRoutes builds the v1 route registrar. authn resolves the caller for
// every v1 route.
func NewRoutes(handlerProvider *handlers.Provider, authn gin.HandlerFunc, log zerolog.Logger) *Routes {
	return &Routes{
		handlers: handlerProvider,
		authn:    authn,
		log:      log,
	}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(engine *gin.Engine) {
	group := engine.Group("/v1", r.authn)
	registerChatRoutes(group, r.handlers.Chat)
	registerConversationRoutes(group, r.handlers.Conversation, r.log)
	registerFAQRoutes(group, r.handlers.FAQ, r.log)
	registerEscalationRoutes(group, r.handlers.Escalation, r.log)
}

type listResponse[T any] struct {
	Object string `json:"object"`
	Data   []T    `json:"data"`
	Total  int64  `json:"total"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Object: "list", Data: items, Total: int64(len(items))}
}

// caller returns the authenticated principal or writes a 401.
func caller(c *gin.Context) (auth.Principal, bool) {
	p, ok := auth.PrincipalFrom(c)
	if !ok || p.UserID == "" {
		platformerrors.WriteUnauthorized(c, "authentication required")
		return auth.Principal{}, false
	}
	return p, true
}

// idParam parses the :id path segment or writes a 400.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		platformerrors.WriteValidationError(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}
