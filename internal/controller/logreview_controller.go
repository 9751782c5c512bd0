package controller

import (
	"bufio"
	"context"
	"fmt"

	"ai-affairs-gateway/internal/dto"
	"ai-affairs-gateway/internal/pkg/serverutils"
	"ai-affairs-gateway/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type LogReviewController struct {
	service service.ILogReviewService
}

func NewLogReviewController(service service.ILogReviewService) *LogReviewController {
	return &LogReviewController{
		service: service,
	}
}

func (c *LogReviewController) RegisterRoutes(router fiber.Router) {
	logs := router.Group("/logs/v1")
	logs.Post("/analyze", c.Analyze)
	logs.Post("/analyze-stream", c.AnalyzeStream)
}

func (c *LogReviewController) Analyze(ctx *fiber.Ctx) error {
	var req dto.LogReviewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Analyze(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Log analysis completed", res))
}

func (c *LogReviewController) AnalyzeStream(ctx *fiber.Ctx) error {
	var req dto.LogReviewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	lines, err := c.service.AnalyzeStream(streamCtx, &req)
	if err != nil {
		cancel()
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for line := range lines {
			if _, err := fmt.Fprintf(w, "%s\n\n", line); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))

	return nil
}
