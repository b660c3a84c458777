package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pawsitive-haven/assistant-api/internal/domain/escalation"
	"pawsitive-haven/assistant-api/internal/infrastructure/auth"
	"pawsitive-haven/assistant-api/internal/interfaces/httpserver/handlers"
	"pawsitive-haven/assistant-api/internal/utils/platformerrors"
)

type createEscalationRequest struct {
	ConversationID    uint   `json:"conversation_id" binding:"required" example:"12"`
	MessageID         *uint  `json:"message_id,omitempty" example:"40"`
	UserEmail         string `json:"user_email" example:"sam@example.com"`
	UserName          string `json:"user_name" example:"Sam"`
	UserQuestion      string `json:"user_question" example:"Can I foster two cats at once?"`
	AdditionalContext string `json:"additional_context,omitempty"`
}

type updateEscalationRequest struct {
	Status     *string `json:"status,omitempty" example:"in_progress"`
	StaffNotes *string `json:"staff_notes,omitempty"`
}

func registerEscalationRoutes(router gin.IRoutes, handler *handlers.EscalationHandler, log zerolog.Logger) {
	router.POST("/escalations", createEscalation(handler, log))
	router.GET("/escalations/mine", listMyEscalations(handler, log))
	router.GET("/escalations/:id", getEscalation(handler, log))
	router.GET("/escalations", auth.RequireStaff(), listEscalationsByStatus(handler, log))
	router.PATCH("/escalations/:id", auth.RequireStaff(), updateEscalation(handler, log))
}

// createEscalation godoc
// @Summary      Hand a conversation over to shelter staff
// @Tags         escalations
// @Accept       json
// @Produce      json
// @Param        request  body      createEscalationRequest  true  "Escalation"
// @Success      201      {object}  escalation.Escalation
// @Failure      400      {object}  platformerrors.HTTPErrorResponse
// @Failure      403      {object}  platformerrors.HTTPErrorResponse
// @Failure      404      {object}  platformerrors.HTTPErrorResponse
// @Router       /v1/escalations [post]
func createEscalation(handler *handlers.EscalationHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := caller(c)
		if !ok {
			return
		}
		var req createEscalationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			platformerrors.WriteValidationError(c, "invalid request body")
			return
		}

		created, err := handler.Create(c.Request.Context(), p.UserID, escalation.CreateRequest{
			ConversationID:    req.ConversationID,
			MessageID:         req.MessageID,
			UserEmail:         req.UserEmail,
			UserName:          req.UserName,
			UserQuestion:      req.UserQuestion,
			AdditionalContext: req.AdditionalContext,
		})
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

// listMyEscalations godoc
// @Summary      List the caller's escalations
// @Tags         escalations
// @Produce      json
// @Success      200  {object}  listResponse[escalation.Escalation]
// @Router       /v1/escalations/mine [get]
func listMyEscalations(handler *handlers.EscalationHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := caller(c)
		if !ok {
			return
		}
		items, err := handler.ListMine(c.Request.Context(), p.UserID)
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, newList[escalation.Escalation](items))
	}
}

// getEscalation godoc
// @Summary      Get an escalation
// @Description  Visible to its creator and to staff.
// @Tags         escalations
// @Produce      json
// @Param        id   path      int  true  "Escalation ID"
// @Success      200  {object}  escalation.Escalation
// @Failure      404  {object}  platformerrors.HTTPErrorResponse
// @Router       /v1/escalations/{id} [get]
func getEscalation(handler *handlers.EscalationHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := caller(c)
		if !ok {
			return
		}
		id, ok := idParam(c)
		if !ok {
			return
		}
		e, err := handler.Get(c.Request.Context(), id, p.UserID, p.IsStaff())
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, e)
	}
}

// listEscalationsByStatus godoc
// @Summary      Staff queue of escalations in one status
// @Tags         escalations
// @Produce      json
// @Param        status     query     string  false  "Status"  default(pending)
// @Param        page       query     int     false  "Page"    default(1)
// @Param        page_size  query     int     false  "Page size"  default(20)
// @Success      200        {object}  escalation.Page
// @Failure      400        {object}  platformerrors.HTTPErrorResponse
// @Failure      403        {object}  platformerrors.HTTPErrorResponse
// @Router       /v1/escalations [get]
func listEscalationsByStatus(handler *handlers.EscalationHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := escalation.ParseStatus(c.DefaultQuery("status", string(escalation.StatusPending)))
		if err != nil {
			platformerrors.WriteValidationError(c, "unknown status")
			return
		}
		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil {
			platformerrors.WriteValidationError(c, "invalid page")
			return
		}
		pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(escalation.DefaultPageSize)))
		if err != nil {
			platformerrors.WriteValidationError(c, "invalid page_size")
			return
		}

		result, err := handler.ListByStatus(c.Request.Context(), status, page, pageSize)
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		if result.Items == nil {
			result.Items = []escalation.Escalation{}
		}
		c.JSON(http.StatusOK, result)
	}
}

// updateEscalation godoc
// @Summary      Staff update of status or notes
// @Tags         escalations
// @Accept       json
// @Produce      json
// @Param        id       path      int                      true  "Escalation ID"
// @Param        request  body      updateEscalationRequest  true  "Changes"
// @Success      200      {object}  escalation.Escalation
// @Failure      400      {object}  platformerrors.HTTPErrorResponse
// @Failure      404      {object}  platformerrors.HTTPErrorResponse
// @Router       /v1/escalations/{id} [patch]
func updateEscalation(handler *handlers.EscalationHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var req updateEscalationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			platformerrors.WriteValidationError(c, "invalid request body")
			return
		}

		update := escalation.UpdateRequest{StaffNotes: req.StaffNotes}
		if req.Status != nil {
			status, err := escalation.ParseStatus(*req.Status)
			if err != nil {
				platformerrors.WriteValidationError(c, "unknown status")
				return
			}
			update.Status = &status
		}

		e, err := handler.Update(c.Request.Context(), id, update)
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, e)
	}
}
