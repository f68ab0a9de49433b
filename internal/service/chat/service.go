package chat

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/retriever"

	"github.com/saarthi/companion/backend/internal/model/chat"
	"github.com/saarthi/companion/backend/internal/model/persona"
	"github.com/saarthi/companion/backend/internal/retrieval"
	"github.com/saarthi/companion/backend/internal/service/ai"
	"github.com/saarthi/companion/backend/internal/store"
)

var ErrMissingData = errors.New("missing data")

// Stage names a step of one chat turn.
type Stage string

const (
	StageReceived         Stage = "RECEIVED"
	StageValidated        Stage = "VALIDATED"
	StageHistoryLoaded    Stage = "HISTORY_LOADED"
	StageContextRetrieved Stage = "CONTEXT_RETRIEVED"
	StagePromptAssembled  Stage = "PROMPT_ASSEMBLED"
	StageGenerated        Stage = "GENERATED"
	StagePersisted        Stage = "PERSISTED"
	StageReturned         Stage = "RETURNED"
)

// TurnError reports the stage a turn failed to reach.
type TurnError struct {
	Stage Stage
	Err   error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("chat turn failed at %s: %v", e.Stage, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// Turn is one inbound user message.
type Turn struct {
	Message string `json:"message"`
	ChatID  string `json:"chatId"`
	Persona string `json:"persona"`
}

// Reply is the assistant answer returned to the caller.
type Reply struct {
	Role    chat.Role `json:"role"`
	Content string    `json:"content"`
	Persona string    `json:"persona"`
}

// PromptAssembler renders the completion prompt for a turn.
type PromptAssembler interface {
	Assemble(ctx context.Context, personaID string, history []chat.Message, passages []string, query string) (string, error)
}

// Service runs chat turns against the store, retriever and model.
type Service struct {
	store     store.Store
	retriever retriever.Retriever
	assembler PromptAssembler
	generator ai.Generator
	personas  persona.Store
}

// NewService wires the orchestrator. All dependencies are required.
func NewService(st store.Store, r retriever.Retriever, assembler PromptAssembler, generator ai.Generator, personas persona.Store) *Service {
	return &Service{
		store:     st,
		retriever: r,
		assembler: assembler,
		generator: generator,
		personas:  personas,
	}
}

// StageFunc observes a turn as it completes each stage.
type StageFunc func(Stage)

// SendMessage runs one turn. The user message is persisted before generation
// and is kept if a later stage fails.
func (s *Service) SendMessage(ctx context.Context, turn Turn) (Reply, error) {
	return s.Run(ctx, turn, nil)
}

// Run is SendMessage with a stage observer; onStage may be nil.
func (s *Service) Run(ctx context.Context, turn Turn, onStage StageFunc) (Reply, error) {
	reached := func(stage Stage) {
		if onStage != nil {
			onStage(stage)
		}
	}

	reached(StageReceived)
	if turn.Message == "" || turn.ChatID == "" || turn.Persona == "" {
		return Reply{}, ErrMissingData
	}
	reached(StageValidated)

	personaID := string(s.personas.Resolve(turn.Persona).ID)
	if personaID != turn.Persona {
		log.Printf("[chat] unknown persona %q for chat %s, using %s", turn.Persona, turn.ChatID, personaID)
	}

	history, err := s.store.GetHistory(ctx, turn.ChatID)
	if err != nil {
		return Reply{}, &TurnError{Stage: StageHistoryLoaded, Err: err}
	}
	if _, err := s.store.AppendMessage(ctx, turn.ChatID, chat.RoleUser, turn.Message, ""); err != nil {
		return Reply{}, &TurnError{Stage: StageHistoryLoaded, Err: err}
	}
	reached(StageHistoryLoaded)

	docs, err := s.retriever.Retrieve(ctx, turn.Message)
	if err != nil {
		return Reply{}, &TurnError{Stage: StageContextRetrieved, Err: err}
	}
	reached(StageContextRetrieved)

	prompt, err := s.assembler.Assemble(ctx, personaID, history, retrieval.Contents(docs), turn.Message)
	if err != nil {
		return Reply{}, &TurnError{Stage: StagePromptAssembled, Err: err}
	}
	reached(StagePromptAssembled)

	content, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return Reply{}, &TurnError{Stage: StageGenerated, Err: err}
	}
	reached(StageGenerated)

	if _, err := s.store.AppendMessage(ctx, turn.ChatID, chat.RoleAssistant, content, personaID); err != nil {
		return Reply{}, &TurnError{Stage: StagePersisted, Err: err}
	}
	reached(StagePersisted)

	log.Printf("[chat] turn completed chat=%s persona=%s passages=%d", turn.ChatID, personaID, len(docs))
	reached(StageReturned)
	return Reply{Role: chat.RoleAssistant, Content: content, Persona: personaID}, nil
}

// ListChats returns every session, newest first.
func (s *Service) ListChats() []chat.Session {
	return s.store.ListSessions()
}

// History returns the transcript of chatID.
func (s *Service) History(ctx context.Context, chatID string) ([]chat.Message, error) {
	return s.store.GetHistory(ctx, chatID)
}

// NewChat creates an empty session.
func (s *Service) NewChat(ctx context.Context) (chat.Session, error) {
	return s.store.CreateSession(ctx)
}

// DeleteChat removes a session and its transcript.
func (s *Service) DeleteChat(ctx context.Context, chatID string) store.DeleteResult {
	return s.store.DeleteSession(ctx, chatID)
}
