package v1

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pawsitive-haven/assistant-api/internal/domain/assistant"
	"pawsitive-haven/assistant-api/internal/interfaces/httpserver/handlers"
	"pawsitive-haven/assistant-api/internal/utils/platformerrors"
)

type chatRequest struct {
	Message        string `json:"message" example:"What are your adoption hours?"`
	ConversationID *uint  `json:"conversation_id,omitempty" example:"12"`
}

type chatResponse struct {
	Success           bool   `json:"success"`
	Reply             string `json:"reply,omitempty"`
	ConversationID    uint   `json:"conversation_id,omitempty"`
	Error             string `json:"error,omitempty"`
	ErrorType         string `json:"error_type,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

type bioRequest struct {
	Name        string `json:"name" example:"Biscuit"`
	Species     string `json:"species" example:"Dog"`
	Breed       string `json:"breed,omitempty" example:"Beagle"`
	Age         *int   `json:"age,omitempty" example:"3"`
	Sex         string `json:"sex,omitempty" example:"Male"`
	Personality string `json:"personality,omitempty" example:"Loves belly rubs and long naps"`
}

type bioResponse struct {
	Success           bool   `json:"success"`
	Bio               string `json:"bio,omitempty"`
	Error             string `json:"error,omitempty"`
	ErrorType         string `json:"error_type,omitempty"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

func registerChatRoutes(router gin.IRoutes, handler *handlers.ChatHandler) {
	router.POST("/chat", sendChat(handler))
	router.POST("/pets/bio", generatePetBio(handler))
}

// sendChat godoc
// @Summary      Send a chat message to the shelter assistant
// @Description  Runs one chat turn. Omit conversation_id to start a conversation.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request  body      chatRequest  true  "Chat turn"
// @Success      200      {object}  chatResponse
// @Failure      400      {object}  chatResponse
// @Failure      403      {object}  chatResponse
// @Failure      404      {object}  chatResponse
// @Failure      409      {object}  chatResponse
// @Failure      429      {object}  chatResponse
// @Failure      502      {object}  chatResponse
// @Failure      503      {object}  chatResponse
// @Failure      504      {object}  chatResponse
// @Router       /v1/chat [post]
func sendChat(handler *handlers.ChatHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := caller(c)
		if !ok {
			return
		}
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			platformerrors.WriteValidationError(c, "invalid request body")
			return
		}

		result := handler.SendChat(c.Request.Context(), assistant.ChatRequest{
			UserID:         p.UserID,
			Message:        req.Message,
			ConversationID: req.ConversationID,
		})
		if result.Success {
			c.JSON(http.StatusOK, chatResponse{
				Success:        true,
				Reply:          result.Reply,
				ConversationID: result.ConversationID,
			})
			return
		}

		retry := writeRetryAfter(c, result.RetryAfter)
		c.JSON(statusForKind(result.Kind), chatResponse{
			ConversationID:    result.ConversationID,
			Error:             result.ErrorMessage,
			ErrorType:         string(result.Kind),
			RetryAfterSeconds: retry,
		})
	}
}

// generatePetBio godoc
// @Summary      Generate an adoption bio for a pet
// @Tags         pets
// @Accept       json
// @Produce      json
// @Param        request  body      bioRequest  true  "Pet details"
// @Success      200      {object}  bioResponse
// @Failure      400      {object}  bioResponse
// @Failure      429      {object}  bioResponse
// @Failure      502      {object}  bioResponse
// @Router       /v1/pets/bio [post]
func generatePetBio(handler *handlers.ChatHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := caller(c)
		if !ok {
			return
		}
		var req bioRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			platformerrors.WriteValidationError(c, "invalid request body")
			return
		}

		result := handler.GeneratePetBio(c.Request.Context(), p.UserID, assistant.BioRequest{
			Name:        req.Name,
			Species:     req.Species,
			Breed:       req.Breed,
			Age:         req.Age,
			Sex:         req.Sex,
			Personality: req.Personality,
		})
		if result.Success {
			c.JSON(http.StatusOK, bioResponse{Success: true, Bio: result.Bio})
			return
		}

		retry := writeRetryAfter(c, result.RetryAfter)
		c.JSON(statusForKind(result.Kind), bioResponse{
			Error:             result.ErrorMessage,
			ErrorType:         string(result.Kind),
			RetryAfterSeconds: retry,
		})
	}
}

// statusForKind maps a failed turn onto an HTTP status.
func statusForKind(kind assistant.ErrorKind) int {
	switch kind {
	case assistant.KindRateLimited, assistant.KindBanned:
		return http.StatusTooManyRequests
	case assistant.KindValidationLength, assistant.KindValidationAdversarial:
		return http.StatusBadRequest
	case assistant.KindAccessDenied:
		return http.StatusForbidden
	case assistant.KindNotFound:
		return http.StatusNotFound
	case assistant.KindConversationBusy:
		return http.StatusConflict
	case assistant.KindTimeout:
		return http.StatusGatewayTimeout
	case assistant.KindQuotaExceeded:
		return http.StatusServiceUnavailable
	case assistant.KindExternalFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeRetryAfter sets the Retry-After header in whole seconds, rounded up.
func writeRetryAfter(c *gin.Context, d time.Duration) int {
	if d <= 0 {
		return 0
	}
	seconds := int(math.Ceil(d.Seconds()))
	c.Header("Retry-After", strconv.Itoa(seconds))
	return seconds
}
