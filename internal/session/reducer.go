package session

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vbonduro/dishout/internal/domain"
)

// DefaultLeadPrice is the amount, in AED, credited to a restaurant's
// balance for every accepted lead.
var DefaultLeadPrice = decimal.NewFromInt(3)

// SystemSenderID is the sender id of messages generated by the app itself.
const SystemSenderID = "system"

// Reducer advances a State by one Action. It performs no I/O; the clock and
// id source are injected so results are reproducible in tests.
type Reducer struct {
	LeadPrice decimal.Decimal
	Now       func() time.Time
	NewID     func() string
}

func NewReducer(leadPrice decimal.Decimal) Reducer {
	return Reducer{
		LeadPrice: leadPrice,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// Reduce returns the state that results from applying a to s. Actions that
// reference unknown chats, or whose preconditions do not hold, return s
// unchanged.
func (r Reducer) Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Login:
		return r.login(s, a)
	case Logout:
		return Initial()
	case SetView:
		s.View = a.View
		return s
	case AddScan:
		scans := make([]domain.FoodScan, 0, len(s.Scans)+1)
		scans = append(scans, a.Scan)
		s.Scans = append(scans, s.Scans...)
		return s
	case AddMessage:
		return r.addMessage(s, a)
	case StartChat:
		return r.startChat(s, a)
	case SetActiveChat:
		if a.ChatID == "" {
			s.ActiveChatID = ""
			return s
		}
		if _, ok := s.Chat(a.ChatID); ok {
			s.ActiveChatID = a.ChatID
		}
		return s
	case AcceptLead:
		return r.acceptLead(s, a)
	case DeclineLead:
		next, ok := transition(s, a.ChatID, domain.ChatPending, domain.ChatClosed)
		if !ok {
			return s
		}
		next.ActiveChatID = ""
		return next
	case ConvertLead:
		next, _ := transition(s, a.ChatID, domain.ChatActive, domain.ChatConverted)
		return next
	case UpdateMenu:
		if s.Dashboard == nil {
			return s
		}
		d := *s.Dashboard
		d.Menu = make([]domain.MenuItem, len(a.Items))
		copy(d.Menu, a.Items)
		s.Dashboard = &d
		return s
	case UpdateRestaurantLocation:
		return r.updateLocation(s, a)
	case FocusMap:
		focus := a.Focus
		s.MapFocus = &focus
		s.View = domain.ViewMap
		return s
	case UpdateUserAvatar:
		if s.User == nil {
			return s
		}
		u := *s.User
		u.Avatar = a.Avatar
		s.User = &u
		return s
	default:
		return s
	}
}

func (r Reducer) login(s State, a Login) State {
	u := cloneUser(a.User)
	s.User = u
	if u.IsRestaurant() {
		s.Dashboard = domain.DashboardFor(u)
	} else {
		s.Dashboard = nil
	}
	return s
}

func (r Reducer) addMessage(s State, a AddMessage) State {
	idx := chatIndex(s.Chats, a.ChatID)
	if idx < 0 {
		return s
	}
	chats := cloneChats(s.Chats)
	c := chats[idx]
	msgs := make([]domain.ChatMessage, 0, len(c.Messages)+1)
	msgs = append(msgs, c.Messages...)
	c.Messages = append(msgs, a.Message)
	chats[idx] = c
	s.Chats = chats
	return s
}

func (r Reducer) startChat(s State, a StartChat) State {
	for _, c := range s.Chats {
		if c.RestaurantID == a.Match.ID {
			s.ActiveChatID = c.ID
			s.View = domain.ViewChat
			return s
		}
	}

	userID, userName := "unknown", "User"
	if s.User != nil {
		userID = s.User.ID
		if s.User.Name != "" {
			userName = s.User.Name
		}
	}

	now := r.Now().UnixMilli()
	chat := domain.ChatSession{
		ID:               "chat_" + r.NewID(),
		RestaurantID:     a.Match.ID,
		RestaurantName:   a.Match.Name,
		RestaurantAvatar: AvatarURL(a.Match.Name),
		UserID:           userID,
		UserName:         userName,
		Messages: []domain.ChatMessage{{
			ID:        "init_1",
			SenderID:  SystemSenderID,
			Text:      fmt.Sprintf("📍 Connected to: %s. Waiting for acceptance...", a.Match.Name),
			Timestamp: now,
			IsSystem:  true,
		}},
		Status: domain.ChatPending,
	}

	chats := make([]domain.ChatSession, 0, len(s.Chats)+1)
	chats = append(chats, chat)
	s.Chats = append(chats, s.Chats...)
	s.ActiveChatID = chat.ID
	s.View = domain.ViewChat
	return s
}

func (r Reducer) acceptLead(s State, a AcceptLead) State {
	next, ok := transition(s, a.ChatID, domain.ChatPending, domain.ChatActive)
	if !ok {
		return s
	}
	if next.User != nil && next.User.ID == a.RestaurantID && next.Dashboard != nil {
		d := *next.Dashboard
		d.Leads++
		d.Balance = d.Balance.Add(r.LeadPrice)
		next.Dashboard = &d
	}
	return next
}

func (r Reducer) updateLocation(s State, a UpdateRestaurantLocation) State {
	if s.Dashboard == nil {
		return s
	}
	loc := a.Location
	d := *s.Dashboard
	d.Location = &loc
	s.Dashboard = &d

	if s.User.IsRestaurant() && s.User.ID == d.ID {
		u := *s.User
		userLoc := loc
		u.Location = &userLoc
		s.User = &u
	}
	return s
}

// transition moves chat id from status from to status to. It reports false,
// leaving s untouched, when the chat is missing or not in status from.
func transition(s State, id string, from, to domain.ChatStatus) (State, bool) {
	idx := chatIndex(s.Chats, id)
	if idx < 0 || s.Chats[idx].Status != from {
		return s, false
	}
	chats := cloneChats(s.Chats)
	chats[idx].Status = to
	s.Chats = chats
	return s, true
}

// AvatarURL returns the generated avatar image for a display name.
func AvatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=random"
}

func chatIndex(chats []domain.ChatSession, id string) int {
	for i, c := range chats {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func cloneChats(chats []domain.ChatSession) []domain.ChatSession {
	out := make([]domain.ChatSession, len(chats))
	copy(out, chats)
	return out
}

func cloneUser(u domain.User) *domain.User {
	if u.Location != nil {
		loc := *u.Location
		u.Location = &loc
	}
	if u.Menu != nil {
		menu := make([]domain.MenuItem, len(u.Menu))
		copy(menu, u.Menu)
		u.Menu = menu
	}
	if u.Balance != nil {
		b := *u.Balance
		u.Balance = &b
	}
	return &u
}
