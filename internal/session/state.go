package session

import "github.com/vbonduro/dishout/internal/domain"

// State is the aggregate root of one client. Values reachable from a State
// are never modified in place; the reducer always builds new slices and
// pointers, so a State can be shared after it has been published.
type State struct {
	User         *domain.User         `json:"user"`
	View         domain.View          `json:"view"`
	Chats        []domain.ChatSession `json:"chats"`
	Scans        []domain.FoodScan    `json:"scans"`
	Dashboard    *domain.Dashboard    `json:"currentRestaurantData"`
	ActiveChatID string               `json:"activeChatId,omitempty"`
	MapFocus     *domain.MapFocus     `json:"mapFocus"`
}

// Initial returns the logged-out state.
func Initial() State {
	return State{
		View:  domain.ViewHome,
		Chats: []domain.ChatSession{},
		Scans: []domain.FoodScan{},
	}
}

// Chat returns the chat with the given id.
func (s State) Chat(id string) (domain.ChatSession, bool) {
	for _, c := range s.Chats {
		if c.ID == id {
			return c, true
		}
	}
	return domain.ChatSession{}, false
}

// VisibleChats returns the chats the logged-in account takes part in:
// restaurants see chats addressed to them, users see chats they opened.
func (s State) VisibleChats() []domain.ChatSession {
	out := make([]domain.ChatSession, 0, len(s.Chats))
	if s.User == nil {
		return out
	}
	for _, c := range s.Chats {
		if s.User.IsRestaurant() && c.RestaurantID == s.User.ID {
			out = append(out, c)
		} else if !s.User.IsRestaurant() && c.UserID == s.User.ID {
			out = append(out, c)
		}
	}
	return out
}

// ForViewer narrows s to what the logged-in account may see. It is the
// shape served to clients.
func (s State) ForViewer() State {
	s.Chats = s.VisibleChats()
	if _, ok := s.Chat(s.ActiveChatID); !ok {
		s.ActiveChatID = ""
	}
	return s
}
