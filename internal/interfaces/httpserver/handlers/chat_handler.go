package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	domain "github.com/coder4-c/survivor-support/internal/domain/chat"
	"github.com/coder4-c/survivor-support/internal/interfaces/httpserver/requests"
	"github.com/coder4-c/survivor-support/internal/interfaces/httpserver/responses"
	"github.com/coder4-c/survivor-support/internal/utils/platformerrors"
)

// ChatHandler exposes the supportive chat proxy.
type ChatHandler struct {
	service *domain.Service
	log     zerolog.Logger
}

func NewChatHandler(service *domain.Service, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		log:     log.With().Str("component", "chat-handler").Logger(),
	}
}

// Chat godoc
// @Summary      Supportive chat
// @Description  Proxies a chat turn through the configured providers, falling back to canned supportive responses when none answer.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request  body      requests.ChatRequest  true  "Chat turn"
// @Success      200      {object}  domain.Reply
// @Failure      400      {object}  responses.ErrorResponse
// @Router       /v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req requests.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			"invalid request body", "f6a7b8c9-d0e1-4f2a-3b4c-5d6e7f8a9b72")
		return
	}

	reply, err := h.service.Reply(c.Request.Context(), req.History, req.Message)
	if err != nil {
		responses.HandleError(c, err, "chat failed")
		return
	}

	c.JSON(http.StatusOK, reply)
}
