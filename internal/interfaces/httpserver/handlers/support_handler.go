package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	domain "github.com/coder4-c/survivor-support/internal/domain/support"
	"github.com/coder4-c/survivor-support/internal/interfaces/httpserver/requests"
	"github.com/coder4-c/survivor-support/internal/interfaces/httpserver/responses"
	"github.com/coder4-c/survivor-support/internal/utils/platformerrors"
)

// SupportHandler exposes support-request intake and triage endpoints.
type SupportHandler struct {
	service *domain.Service
	log     zerolog.Logger
}

func NewSupportHandler(service *domain.Service, log zerolog.Logger) *SupportHandler {
	return &SupportHandler{
		service: service,
		log:     log.With().Str("component", "support-handler").Logger(),
	}
}

// Create godoc
// @Summary      Submit a support request
// @Description  Accepts a support request. Name and email are optional so requesters can stay anonymous.
// @Tags         support
// @Accept       json
// @Produce      json
// @Param        request  body      requests.CreateSupportRequest  true  "Support request"
// @Success      201      {object}  domain.Request
// @Failure      400      {object}  responses.ErrorResponse
// @Router       /v1/support [post]
func (h *SupportHandler) Create(c *gin.Context) {
	var req requests.CreateSupportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			"invalid request body", "d4e5f6a7-b8c9-4d0e-1f2a-3b4c5d6e7f70")
		return
	}

	created, err := h.service.Create(c.Request.Context(), domain.NewRequestInput{
		Name:    req.Name,
		Email:   req.Email,
		Type:    domain.Type(req.Type),
		Message: req.Message,
	}, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		responses.HandleError(c, err, "could not create support request")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// List godoc
// @Summary      List support requests
// @Description  Returns support requests newest first, optionally filtered by status and type.
// @Tags         support
// @Produce      json
// @Param        status  query     string  false  "Status filter"
// @Param        type    query     string  false  "Type filter"
// @Param        limit   query     int     false  "Page size"
// @Param        offset  query     int     false  "Page offset"
// @Success      200     {array}   domain.Request
// @Failure      400     {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/support [get]
func (h *SupportHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	items, err := h.service.List(c.Request.Context(), domain.ListFilter{
		Status: domain.Status(c.Query("status")),
		Type:   domain.Type(c.Query("type")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		responses.HandleError(c, err, "could not list support requests")
		return
	}

	c.JSON(http.StatusOK, items)
}

// Update godoc
// @Summary      Update a support request
// @Description  Applies an admin triage change: status, priority, assignee or an appended note.
// @Tags         support
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Request ID"
// @Param        request  body      requests.UpdateSupportRequest  true  "Fields to update"
// @Success      200      {object}  domain.Request
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      404      {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/support/{id} [patch]
func (h *SupportHandler) Update(c *gin.Context) {
	var req requests.UpdateSupportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			"invalid request body", "e5f6a7b8-c9d0-4e1f-2a3b-4c5d6e7f8a71")
		return
	}

	input := domain.UpdateInput{AssignedTo: req.AssignedTo}
	if req.Status != nil {
		status := domain.Status(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		input.Priority = &priority
	}
	if req.Note != nil {
		input.Note = &domain.Note{Content: req.Note.Content, Author: req.Note.Author}
	}

	updated, err := h.service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		responses.HandleError(c, err, "could not update support request")
		return
	}

	c.JSON(http.StatusOK, updated)
}
