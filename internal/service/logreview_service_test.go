package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ai-affairs-gateway/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorkflow struct {
	result    json.RawMessage
	err       error
	lines     chan string
	streamErr error
	content   string
}

func (f *fakeWorkflow) RunWorkflow(_ context.Context, content, _ string) (json.RawMessage, error) {
	f.content = content
	return f.result, f.err
}

func (f *fakeWorkflow) RunWorkflowStreaming(_ context.Context, content, _ string) (<-chan string, error) {
	f.content = content
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.lines, nil
}

func TestAnalyze(t *testing.T) {
	wf := &fakeWorkflow{result: json.RawMessage(`{"verdict": "clean"}`)}
	svc := NewLogReviewService(wf, nopLogger{})

	resp, err := svc.Analyze(context.Background(), &dto.LogReviewRequest{Content: "2026-08-30 ERROR ..."})
	require.NoError(t, err)
	assert.JSONEq(t, `{"verdict": "clean"}`, string(resp.Result))
	assert.Equal(t, "2026-08-30 ERROR ...", wf.content)
}

func TestAnalyzeRejectsBlankContent(t *testing.T) {
	svc := NewLogReviewService(&fakeWorkflow{}, nopLogger{})

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err := svc.Analyze(context.Background(), &dto.LogReviewRequest{Content: content})
		require.Error(t, err)

		var fe *fiber.Error
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, fiber.StatusBadRequest, fe.Code)
	}
}

func TestAnalyzePropagatesWorkflowErrors(t *testing.T) {
	wf := &fakeWorkflow{err: errors.New("workflow unreachable")}
	svc := NewLogReviewService(wf, nopLogger{})

	_, err := svc.Analyze(context.Background(), &dto.LogReviewRequest{Content: "x"})
	assert.Error(t, err)
}

func TestAnalyzeStream(t *testing.T) {
	lines := make(chan string, 1)
	lines <- `data: {"event": "workflow_finished"}`
	close(lines)

	svc := NewLogReviewService(&fakeWorkflow{lines: lines}, nopLogger{})
	out, err := svc.AnalyzeStream(context.Background(), &dto.LogReviewRequest{Content: "x"})
	require.NoError(t, err)

	var got []string
	for line := range out {
		got = append(got, line)
	}
	assert.Equal(t, []string{`data: {"event": "workflow_finished"}`}, got)
}

func TestAnalyzeStreamRejectsBlankContent(t *testing.T) {
	svc := NewLogReviewService(&fakeWorkflow{}, nopLogger{})
	_, err := svc.AnalyzeStream(context.Background(), &dto.LogReviewRequest{Content: " "})

	var fe *fiber.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fiber.StatusBadRequest, fe.Code)
}
