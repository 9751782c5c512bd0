package controller

import (
	"ai-affairs-gateway/internal/dto"
	"ai-affairs-gateway/internal/pkg/serverutils"
	"ai-affairs-gateway/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ChatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) *ChatController {
	return &ChatController{
		service: service,
	}
}

func (c *ChatController) RegisterRoutes(router fiber.Router) {
	chat := router.Group("/chat/v1")
	chat.Post("/", c.Chat)
}

// Chat runs one blocking question/answer turn.
func (c *ChatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.HandleTurn(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Chat turn completed", res))
}
