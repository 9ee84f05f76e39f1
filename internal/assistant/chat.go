// Package assistant is the dashboard chat: a per-user message history and a
// language model that answers academic questions.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"acadease/internal/metrics"
	"acadease/internal/profile"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrEmptyPrompt = errors.New("message is empty")

const (
	notConfiguredReply = "I'm sorry, my connection to the AI service is not configured. The developer needs to set the API key for the assistant."
	errorReply         = "I'm sorry, I encountered an error while processing your request. Please try again."
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

type Message struct {
	ID     string `json:"id,omitempty"`
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
}

// Responder turns a prompt into free text or fails.
type Responder interface {
	Generate(ctx context.Context, systemInstruction, prompt string) (string, error)
}

// HistoryStore persists chat history per user scope.
type HistoryStore interface {
	GetChatHistory(ctx context.Context, scope string) ([]Message, error)
	SaveChatHistory(ctx context.Context, scope string, history []Message) error
}

// Assistant answers chat messages. A nil responder means the model is not
// configured.
type Assistant struct {
	responder Responder
	store     HistoryStore
	logger    zerolog.Logger
}

func New(responder Responder, store HistoryStore, logger zerolog.Logger) *Assistant {
	return &Assistant{
		responder: responder,
		store:     store,
		logger:    logger.With().Str("component", "assistant").Logger(),
	}
}

// Greeting is the first bot message of an empty history.
func Greeting(name string) string {
	return fmt.Sprintf("Hello %s! I'm AcadEase, your personal AI assistant. How can I help you today? "+
		"You can ask me about study resources, career paths, or any general academic questions.", name)
}

func newMessage(sender Sender, text string) Message {
	return Message{ID: uuid.NewString(), Text: text, Sender: sender}
}

// History returns the stored conversation, or a greeting when there is none
// or it cannot be read.
func (a *Assistant) History(ctx context.Context, u profile.User) []Message {
	history, err := a.store.GetChatHistory(ctx, u.Scope())
	if err != nil {
		a.logger.Error().Err(err).Str("scope", u.Scope()).Msg("Failed to load chat history")
		history = nil
	}
	if len(history) == 0 {
		return []Message{newMessage(SenderBot, Greeting(u.Name))}
	}
	return history
}

// Send appends the user's message and the bot's reply to the history and
// returns the reply. Model failures become an apology reply rather than an
// error.
func (a *Assistant) Send(ctx context.Context, u profile.User, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyPrompt
	}

	history := a.History(ctx, u)
	history = append(history, newMessage(SenderUser, text))

	reply := newMessage(SenderBot, a.respond(ctx, u, text))
	history = append(history, reply)

	if err := a.store.SaveChatHistory(ctx, u.Scope(), history); err != nil {
		metrics.IncPersistFailure("chat_history")
		a.logger.Error().Err(err).Str("scope", u.Scope()).Msg("Failed to save chat history")
	}
	return reply, nil
}

func (a *Assistant) respond(ctx context.Context, u profile.User, prompt string) string {
	if a.responder == nil {
		metrics.IncAssistantRequest("unconfigured")
		return notConfiguredReply
	}

	text, err := a.responder.Generate(ctx, SystemInstruction(u), prompt)
	if err != nil {
		metrics.IncAssistantRequest("error")
		a.logger.Error().Err(err).Msg("Language model request failed")
		return errorReply
	}
	metrics.IncAssistantRequest("ok")
	return text
}

// SystemInstruction describes the assistant persona, with the student's
// branch, year and semester when known.
func SystemInstruction(u profile.User) string {
	var sb strings.Builder
	sb.WriteString("You are AcadEase, a friendly, encouraging, and highly knowledgeable AI assistant for college students and administrators. ")
	sb.WriteString("Your goal is to provide comprehensive academic support.\n")

	if !u.IsAdmin() {
		fmt.Fprintf(&sb, "\nUser Profile:\n- Branch: %s\n- Year: %s\n- Semester: %s\n", u.Branch, u.Year, u.Semester)
	}

	sb.WriteString(`
Your Capabilities:
1. General Academic Questions: answer general knowledge or subject-specific questions clearly and concisely, as a helpful tutor would.
2. Study Resources: suggest relevant topics, high-quality video lectures and key articles. Tailor suggestions to the student's branch and year.
3. Skill-Learning Paths: give a structured, step-by-step plan with technologies, online courses and project ideas.
4. University-Specific Info: you have no access to the university's timetables, syllabi or exam dates. Point the user to the official student portal or their department, and offer a study plan instead.
5. Reminders and Deadlines: tell the user to use the Reminders and Timetable panels of the dashboard.
6. Formatting: always answer in Markdown, using lists, bold text and code blocks.
`)
	return sb.String()
}
