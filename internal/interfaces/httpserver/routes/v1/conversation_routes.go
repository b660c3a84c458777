package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pawsitive-haven/assistant-api/internal/domain/conversation"
	"pawsitive-haven/assistant-api/internal/interfaces/httpserver/handlers"
	"pawsitive-haven/assistant-api/internal/utils/platformerrors"
)

func registerConversationRoutes(router gin.IRoutes, handler *handlers.ConversationHandler, log zerolog.Logger) {
	router.GET("/conversations", listConversations(handler, log))
	router.GET("/conversations/:id", getConversation(handler, log))
	router.DELETE("/conversations/:id", deleteConversation(handler, log))
}

// listConversations godoc
// @Summary      List the caller's conversations
// @Description  Most recently updated first, without messages.
// @Tags         conversations
// @Produce      json
// @Success      200  {object}  listResponse[conversation.Conversation]
// @Router       /v1/conversations [get]
func listConversations(handler *handlers.ConversationHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := caller(c)
		if !ok {
			return
		}
		items, err := handler.List(c.Request.Context(), p.UserID)
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, newList[conversation.Conversation](items))
	}
}

// getConversation godoc
// @Summary      Get a conversation with its messages
// @Tags         conversations
// @Produce      json
// @Param        id   path      int  true  "Conversation ID"
// @Success      200  {object}  conversation.Conversation
// @Failure      404  {object}  platformerrors.HTTPErrorResponse
// @Router       /v1/conversations/{id} [get]
func getConversation(handler *handlers.ConversationHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := caller(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		conv, err := handler.Get(c.Request.Context(), p.UserID, id)
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, conv)
	}
}

// deleteConversation godoc
// @Summary      Delete a conversation
// @Tags         conversations
// @Param        id   path  int  true  "Conversation ID"
// @Success      204
// @Failure      404  {object}  platformerrors.HTTPErrorResponse
// @Router       /v1/conversations/{id} [delete]
func deleteConversation(handler *handlers.ConversationHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := caller(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := handler.Delete(c.Request.Context(), p.UserID, id); err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
