package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pawsitive-haven/assistant-api/internal/domain/faq"
	"pawsitive-haven/assistant-api/internal/interfaces/httpserver/handlers"
	"pawsitive-haven/assistant-api/internal/utils/platformerrors"
)

func registerFAQRoutes(router gin.IRoutes, handler *handlers.FAQHandler, log zerolog.Logger) {
	router.GET("/faqs", listFAQs(handler, log))
}

// listFAQs godoc
// @Summary      List active FAQs
// @Tags         faqs
// @Produce      json
// @Success      200  {object}  listResponse[faq.FAQ]
// @Router       /v1/faqs [get]
func listFAQs(handler *handlers.FAQHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := handler.ListActive(c.Request.Context())
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, newList[faq.FAQ](items))
	}
}
