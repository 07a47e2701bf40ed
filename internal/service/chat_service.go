package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/dishout/internal/domain"
	"github.com/vbonduro/dishout/internal/events"
	"github.com/vbonduro/dishout/internal/oracle"
	"github.com/vbonduro/dishout/internal/session"
)

// IntentReply is posted by the app when a user message reads as an order.
const IntentReply = "We can prepare that for you right now!"

type ChatService struct {
	sessions sessionSource
	oracle   oracle.Oracle
	events   events.Publisher
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
}

func NewChatService(sessions sessionSource, o oracle.Oracle, publisher events.Publisher, logger *slog.Logger) *ChatService {
	return &ChatService{
		sessions: sessions,
		oracle:   o,
		events:   publisher,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   logger,
	}
}

// StartChat opens, or refocuses, the conversation with a matched restaurant.
func (s *ChatService) StartChat(ctx context.Context, clientID string, match domain.RestaurantMatch) session.State {
	store := s.sessions.Get(ctx, clientID)
	_, existed := chatFor(store.State(), match.ID)
	st := store.Dispatch(ctx, session.StartChat{Match: match})
	if !existed {
		if c, ok := chatFor(st, match.ID); ok {
			s.publish(ctx, events.Event{Type: events.ChatStarted, ClientID: clientID, ChatID: c.ID, RestaurantID: match.ID})
		}
	}
	return st
}

func (s *ChatService) SetActiveChat(ctx context.Context, clientID, chatID string) session.State {
	return s.sessions.Get(ctx, clientID).Dispatch(ctx, session.SetActiveChat{ChatID: chatID})
}

// SendMessage appends a message from the logged-in account to a chat. When
// a customer's message reads as an order, the app replies on the
// restaurant's behalf. Unknown chats are ignored.
func (s *ChatService) SendMessage(ctx context.Context, clientID, chatID, text string) (session.State, error) {
	if strings.TrimSpace(text) == "" {
		return session.State{}, ErrEmptyMessage
	}

	store := s.sessions.Get(ctx, clientID)
	before := store.State()
	if _, ok := before.Chat(chatID); !ok {
		return before, nil
	}

	sender := "unknown"
	if before.User != nil {
		sender = before.User.ID
	}
	st := store.Dispatch(ctx, session.AddMessage{ChatID: chatID, Message: domain.ChatMessage{
		ID:        "msg_" + s.newID(),
		SenderID:  sender,
		Text:      text,
		Timestamp: s.now().UnixMilli(),
	}})

	if before.User.IsRestaurant() {
		return st, nil
	}
	intent, err := s.oracle.CheckIntent(ctx, text)
	if err != nil {
		s.logger.Warn("intent check failed", "chat_id", chatID, "error", err)
		return st, nil
	}
	if !intent {
		return st, nil
	}
	s.logger.Debug("purchase intent detected", "client_id", clientID, "chat_id", chatID)
	return store.Dispatch(ctx, session.AddMessage{ChatID: chatID, Message: domain.ChatMessage{
		ID:        "msg_" + s.newID(),
		SenderID:  session.SystemSenderID,
		Text:      IntentReply,
		Timestamp: s.now().UnixMilli(),
		IsSystem:  true,
	}}), nil
}

// AcceptLead accepts a pending chat on behalf of the logged-in restaurant.
func (s *ChatService) AcceptLead(ctx context.Context, clientID, chatID string) (session.State, error) {
	store := s.sessions.Get(ctx, clientID)
	before := store.State()
	if !before.User.IsRestaurant() {
		return session.State{}, ErrNotRestaurant
	}
	st := store.Dispatch(ctx, session.AcceptLead{ChatID: chatID, RestaurantID: before.User.ID})
	s.publishTransition(ctx, clientID, before, st, chatID, domain.ChatActive, events.LeadAccepted)
	return st, nil
}

func (s *ChatService) DeclineLead(ctx context.Context, clientID, chatID string) (session.State, error) {
	store := s.sessions.Get(ctx, clientID)
	before := store.State()
	if !before.User.IsRestaurant() {
		return session.State{}, ErrNotRestaurant
	}
	st := store.Dispatch(ctx, session.DeclineLead{ChatID: chatID})
	s.publishTransition(ctx, clientID, before, st, chatID, domain.ChatClosed, events.LeadDeclined)
	return st, nil
}

func (s *ChatService) ConvertLead(ctx context.Context, clientID, chatID string) (session.State, error) {
	store := s.sessions.Get(ctx, clientID)
	before := store.State()
	if !before.User.IsRestaurant() {
		return session.State{}, ErrNotRestaurant
	}
	st := store.Dispatch(ctx, session.ConvertLead{ChatID: chatID})
	s.publishTransition(ctx, clientID, before, st, chatID, domain.ChatConverted, events.LeadConverted)
	return st, nil
}

func (s *ChatService) FocusMap(ctx context.Context, clientID string, focus domain.MapFocus) session.State {
	return s.sessions.Get(ctx, clientID).Dispatch(ctx, session.FocusMap{Focus: focus})
}

// publishTransition emits t when the chat moved into status to.
func (s *ChatService) publishTransition(ctx context.Context, clientID string, before, after session.State, chatID string, to domain.ChatStatus, t events.Type) {
	prev, _ := before.Chat(chatID)
	next, ok := after.Chat(chatID)
	if !ok || prev.Status == to || next.Status != to {
		return
	}
	s.publish(ctx, events.Event{Type: t, ClientID: clientID, ChatID: chatID, RestaurantID: next.RestaurantID})
}

func (s *ChatService) publish(ctx context.Context, e events.Event) {
	e.At = s.now().UTC()
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Error("failed to publish event", "type", e.Type, "error", err)
	}
}

func chatFor(st session.State, restaurantID string) (domain.ChatSession, bool) {
	for _, c := range st.Chats {
		if c.RestaurantID == restaurantID {
			return c, true
		}
	}
	return domain.ChatSession{}, false
}
