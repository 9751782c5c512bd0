package service

import (
	"context"
	"time"

	"ai-affairs-gateway/internal/dto"
	"ai-affairs-gateway/internal/pkg/logger"
	"ai-affairs-gateway/pkg/events"
	"ai-affairs-gateway/pkg/ragflow"
	"ai-affairs-gateway/pkg/reference"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// sessionName is the label given to sessions this gateway opens on behalf of
// clients that arrive without one.
const sessionName = "affairs-chat"

// TurnProcessingError marks a turn that failed after the session was already
// established.
type TurnProcessingError struct {
	Err error
}

func (e *TurnProcessingError) Error() string {
	return "chat turn processing failed: " + e.Err.Error()
}

func (e *TurnProcessingError) Unwrap() error {
	return e.Err
}

type IChatService interface {
	// HandleTurn runs one blocking question/answer turn: answer and keyword
	// are fetched in parallel, cited documents are resolved, and the callback
	// receiver is notified asynchronously.
	HandleTurn(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error)

	// StreamCompletions opens a delta stream for the question. A blank
	// session id makes the backend mint one first; the id actually used is
	// returned alongside the channel.
	StreamCompletions(ctx context.Context, question, sessionID string) (<-chan string, string, error)
}

// Narrow views of the collaborators, so tests can fake them.

type ragClient interface {
	CreateSession(ctx context.Context, name string) (string, error)
	ProbeSession(ctx context.Context, question string) (string, error)
	Completion(ctx context.Context, question, sessionID string) (*ragflow.CompletionData, error)
	StreamAnswer(ctx context.Context, question, sessionID string) (<-chan string, error)
}

type keywordExtractor interface {
	ExtractPrimaryKeyword(ctx context.Context, question string) (string, error)
}

type referenceResolver interface {
	Resolve(ctx context.Context, data *ragflow.CompletionData) ([]reference.DocumentReference, error)
}

type callbackDispatcher interface {
	Dispatch(payload interface{})
}

// EventPublisher is the slice of the bus client the turn pipeline needs.
// Exported so the wiring code can hold a nil-able variable of it.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type chatService struct {
	rag        ragClient
	keywords   keywordExtractor
	references referenceResolver
	callbacks  callbackDispatcher
	bus        EventPublisher
	log        logger.ILogger
}

// NewChatService wires the turn pipeline. bus may be nil when the event bus
// is unreachable; turns still complete without it.
func NewChatService(
	rag ragClient,
	keywords keywordExtractor,
	references referenceResolver,
	callbacks callbackDispatcher,
	bus EventPublisher,
	log logger.ILogger,
) IChatService {
	return &chatService{
		rag:        rag,
		keywords:   keywords,
		references: references,
		callbacks:  callbacks,
		bus:        bus,
		log:        log,
	}
}

func (s *chatService) HandleTurn(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error) {
	turnID := uuid.NewString()

	sessionID := request.SessionId
	if sessionID == "" {
		id, err := s.rag.CreateSession(ctx, sessionName)
		if err != nil {
			return nil, err
		}
		sessionID = id
		s.log.Info("chat_service", "Opened new chat session", map[string]interface{}{
			"session_id": sessionID,
		})
	}

	var (
		answer  *ragflow.CompletionData
		keyword string
	)

	// Answer and keyword run in parallel; the turn needs both before it can
	// respond, and one failing cancels the other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := s.rag.Completion(gctx, request.Question, sessionID)
		if err != nil {
			return err
		}
		answer = data
		return nil
	})
	g.Go(func() error {
		kw, err := s.keywords.ExtractPrimaryKeyword(gctx, request.Question)
		if err != nil {
			return err
		}
		keyword = kw
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, &TurnProcessingError{Err: err}
	}

	// A lookup-store outage must not cost the client an answer it already
	// has. The turn completes without documents, which also suppresses the
	// callback below.
	docs, err := s.references.Resolve(ctx, answer)
	if err != nil {
		s.log.Warn("chat_service", "Reference resolution failed, answering without documents", map[string]interface{}{
			"turn_id":    turnID,
			"session_id": sessionID,
			"error":      err.Error(),
		})
		docs = nil
	}

	documents := make([]dto.DocumentInfo, 0, len(docs))
	for _, d := range docs {
		documents = append(documents, dto.DocumentInfo{DocName: d.DocName, PdfUrl: d.PdfUrl})
	}

	s.notifyTurnCompleted(turnID, request, sessionID, answer, keyword, documents)

	s.log.Info("chat_service", "Chat turn completed", map[string]interface{}{
		"turn_id":    turnID,
		"session_id": sessionID,
		"documents":  len(documents),
	})

	return &dto.ChatResponse{
		TurnId:    turnID,
		SessionId: sessionID,
		Answer:    answer,
		Keyword:   keyword,
		Documents: documents,
		UserId:    request.UserId,
	}, nil
}

// notifyTurnCompleted fans the finished turn out to the callback receiver and
// the event bus. Both are best-effort and must not delay the response, so the
// work runs detached from the request context.
func (s *chatService) notifyTurnCompleted(
	turnID string,
	request *dto.ChatRequest,
	sessionID string,
	answer *ragflow.CompletionData,
	keyword string,
	documents []dto.DocumentInfo,
) {
	// The callback contract wants a citation-bearing answer; a turn with no
	// answer text or no cited documents sends nothing.
	if answer.Answer != "" && len(documents) > 0 {
		s.callbacks.Dispatch(&dto.CallbackPayload{
			TurnId:    turnID,
			Answer:    answer.Answer,
			Documents: documents,
			Keyword:   keyword,
			UserId:    request.UserId,
		})
	}

	if s.bus == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := s.bus.Publish(ctx, events.ChatTurnCompleted{
			SessionId:     sessionID,
			Keyword:       keyword,
			UserId:        request.UserId,
			DocumentCount: len(documents),
			At:            time.Now(),
		})
		if err != nil {
			s.log.Warn("chat_service", "Failed to publish turn event", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}()
}

func (s *chatService) StreamCompletions(ctx context.Context, question, sessionID string) (<-chan string, string, error) {
	if sessionID == "" {
		id, err := s.rag.ProbeSession(ctx, question)
		if err != nil {
			return nil, "", err
		}
		sessionID = id
		s.log.Info("chat_service", "Probed new streaming session", map[string]interface{}{
			"session_id": sessionID,
		})
	}

	stream, err := s.rag.StreamAnswer(ctx, question, sessionID)
	if err != nil {
		return nil, "", err
	}
	return stream, sessionID, nil
}
