package service

import (
	"context"
	"encoding/json"
	"strings"

	"ai-affairs-gateway/internal/dto"
	"ai-affairs-gateway/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

type ILogReviewService interface {
	// Analyze runs the review workflow to completion and returns its raw
	// output.
	Analyze(ctx context.Context, request *dto.LogReviewRequest) (*dto.LogReviewResponse, error)

	// AnalyzeStream runs the review workflow in streaming mode and forwards
	// its event lines.
	AnalyzeStream(ctx context.Context, request *dto.LogReviewRequest) (<-chan string, error)
}

type workflowClient interface {
	RunWorkflow(ctx context.Context, content, user string) (json.RawMessage, error)
	RunWorkflowStreaming(ctx context.Context, content, user string) (<-chan string, error)
}

type logReviewService struct {
	workflow workflowClient
	log      logger.ILogger
}

func NewLogReviewService(workflow workflowClient, log logger.ILogger) ILogReviewService {
	return &logReviewService{
		workflow: workflow,
		log:      log,
	}
}

func (s *logReviewService) Analyze(ctx context.Context, request *dto.LogReviewRequest) (*dto.LogReviewResponse, error) {
	if strings.TrimSpace(request.Content) == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "content must not be blank")
	}

	result, err := s.workflow.RunWorkflow(ctx, request.Content, request.UserId)
	if err != nil {
		s.log.Error("logreview_service", "Workflow execution failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	return &dto.LogReviewResponse{Result: result}, nil
}

func (s *logReviewService) AnalyzeStream(ctx context.Context, request *dto.LogReviewRequest) (<-chan string, error) {
	if strings.TrimSpace(request.Content) == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "content must not be blank")
	}
	return s.workflow.RunWorkflowStreaming(ctx, request.Content, request.UserId)
}
