package controller

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"ai-affairs-gateway/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// StreamDemoController serves a canned word-by-word SSE stream so front-end
// clients can develop against the event format without a live RAG backend.
type StreamDemoController struct{}

func NewStreamDemoController() *StreamDemoController {
	return &StreamDemoController{}
}

const demoText = "This is a canned streaming response used to exercise " +
	"the client side event handling without any upstream dependency."

func (c *StreamDemoController) RegisterRoutes(router fiber.Router) {
	sse := router.Group("/sse/v1")
	sse.Get("/demo", c.Demo)
	sse.Get("/health", c.Health)
}

func (c *StreamDemoController) Demo(ctx *fiber.Ctx) error {
	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		fmt.Fprint(w, "event: start\ndata: {}\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		for _, word := range strings.Fields(demoText) {
			if _, err := fmt.Fprintf(w, "event: message\ndata: %s\n\n", word); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
			time.Sleep(100 * time.Millisecond)
		}
		fmt.Fprint(w, "event: complete\ndata: {}\n\n")
		w.Flush()
	}))

	return nil
}

func (c *StreamDemoController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Stream demo is up", map[string]string{
		"status": "ok",
	}))
}
