package session

import "github.com/vbonduro/dishout/internal/domain"

// Action is one of the named state transitions understood by Reducer.
type Action interface {
	Name() string
}

type Login struct{ User domain.User }

type Logout struct{}

type SetView struct{ View domain.View }

type AddScan struct{ Scan domain.FoodScan }

type AddMessage struct {
	ChatID  string
	Message domain.ChatMessage
}

type StartChat struct{ Match domain.RestaurantMatch }

// SetActiveChat focuses an existing chat. An empty ChatID clears the focus.
type SetActiveChat struct{ ChatID string }

type AcceptLead struct {
	ChatID       string
	RestaurantID string
}

type DeclineLead struct{ ChatID string }

// ConvertLead marks an accepted lead as having produced an order.
type ConvertLead struct{ ChatID string }

type UpdateMenu struct{ Items []domain.MenuItem }

type UpdateRestaurantLocation struct{ Location domain.LatLng }

type FocusMap struct{ Focus domain.MapFocus }

type UpdateUserAvatar struct{ Avatar string }

func (Login) Name() string                    { return "login" }
func (Logout) Name() string                   { return "logout" }
func (SetView) Name() string                  { return "set_view" }
func (AddScan) Name() string                  { return "add_scan" }
func (AddMessage) Name() string               { return "add_message" }
func (StartChat) Name() string                { return "start_chat" }
func (SetActiveChat) Name() string            { return "set_active_chat" }
func (AcceptLead) Name() string               { return "accept_lead" }
func (DeclineLead) Name() string              { return "decline_lead" }
func (ConvertLead) Name() string              { return "convert_lead" }
func (UpdateMenu) Name() string               { return "update_menu" }
func (UpdateRestaurantLocation) Name() string { return "update_restaurant_location" }
func (FocusMap) Name() string                 { return "focus_map" }
func (UpdateUserAvatar) Name() string         { return "update_user_avatar" }
