package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/aulora-api/internal/models"
	"github.com/noah-isme/aulora-api/pkg/response"
)

type assistantService interface {
	Reply(ctx context.Context, question string) (*models.AssistantReply, error)
}

// AssistantHandler exposes the public catalog assistant.
type AssistantHandler struct {
	service   assistantService
	validator *validator.Validate
}

// NewAssistantHandler constructs the handler.
func NewAssistantHandler(svc assistantService, validate *validator.Validate) *AssistantHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &AssistantHandler{service: svc, validator: validate}
}

// Reply godoc
// @Summary Ask the catalog assistant
// @Tags Explore
// @Accept json
// @Produce json
// @Param payload body models.AssistantRequest true "Question"
// @Success 200 {object} response.Envelope
// @Router /chatbot [post]
func (h *AssistantHandler) Reply(c *gin.Context) {
	var req models.AssistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid question payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, bindError(err, "question is too long"))
		return
	}
	reply, err := h.service.Reply(c.Request.Context(), req.Question)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reply)
}
