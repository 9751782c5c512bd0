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

// CompletionController exposes the raw delta stream of the RAG backend over
// SSE. The request may carry the session id in the body or the X-Session-ID
// header; no id at all means a new session. The response always echoes the
// id actually used in X-Session-ID so the client can continue the
// conversation.
type CompletionController struct {
	service service.IChatService
}

func NewCompletionController(service service.IChatService) *CompletionController {
	return &CompletionController{
		service: service,
	}
}

func (c *CompletionController) RegisterRoutes(router fiber.Router) {
	rag := router.Group("/ragflow/v1")
	rag.Post("/completions", c.Completions)
}

func (c *CompletionController) Completions(ctx *fiber.Ctx) error {
	var req dto.CompletionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	requestedSession := ctx.Get("X-Session-ID")
	if requestedSession == "" {
		requestedSession = req.SessionId
	}

	// The stream writer runs after this handler returns, when the fiber ctx
	// is no longer safe to touch. A detached context keeps the upstream
	// subscription alive exactly as long as the writer loop.
	streamCtx, cancel := context.WithCancel(context.Background())

	// Open the upstream stream before committing to SSE headers so session
	// and upstream failures still come back as JSON errors.
	stream, sessionID, err := c.service.StreamCompletions(streamCtx, req.Question, requestedSession)
	if err != nil {
		cancel()
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Session-ID", sessionID)

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for line := range stream {
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
