// Package protocol defines the JSON messages exchanged with the remote HID
// server and with the local touchpad page.
package protocol

// ActionType is the value of the "action" field of a request body.
type ActionType string

const (
	// ActionTouchStart opens (or re-counts) a touch session
	ActionTouchStart ActionType = "touch_start"

	// ActionTouchMove reports the current contact points of an open session
	ActionTouchMove ActionType = "touch_move"

	// ActionTouchEnd closes a touch session
	ActionTouchEnd ActionType = "touch_end"

	// ActionReset asks the server to drop its touchpad state
	ActionReset ActionType = "reset"

	// ActionStatus queries the server's touchpad state (used by discovery)
	ActionStatus ActionType = "status"

	// ActionScroll is sent to the mouse endpoint for wheel input
	ActionScroll ActionType = "scroll"
)

// Endpoint names, relative to "/api/".
const (
	EndpointTouchpad = "touchpad"
	EndpointMouse    = "mouse"
)

// StatusSuccess is the only "status" value that means the request was applied.
const StatusSuccess = "success"

// Classification is the server's interpretation of a touch sample.
type Classification string

const (
	ClassLeftClick  Classification = "left_click"
	ClassRightClick Classification = "right_click"
	ClassMove       Classification = "move"
)

// Touch is one contact point as sent on the wire.
type Touch struct {
	ID int     `json:"id" validate:"gte=0"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Position is the primary contact position of an action.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TouchAction is the body POSTed to /api/touchpad.
type TouchAction struct {
	Action     ActionType `json:"action" validate:"required,oneof=touch_start touch_move touch_end reset"`
	TouchID    string     `json:"touch_id,omitempty"`
	TouchCount int        `json:"touch_count,omitempty" validate:"gte=0"`
	Touches    []Touch    `json:"touches,omitempty" validate:"dive"`
	Position   *Position  `json:"position,omitempty"`
	Timestamp  int64      `json:"timestamp,omitempty" validate:"gte=0"`
}

// ScrollRequest is the body POSTed to /api/mouse for wheel input.
type ScrollRequest struct {
	Action ActionType `json:"action"`
	DX     float64    `json:"dx"`
	DY     float64    `json:"dy"`
}

// StatusRequest is the body POSTed to /api/touchpad to query server state.
type StatusRequest struct {
	Action ActionType `json:"action"`
}

// Response is the envelope every endpoint answers with.
type Response struct {
	Status  string         `json:"status"`
	Action  Classification `json:"action,omitempty"`
	Message string         `json:"message,omitempty"`

	// Mode is returned by some servers on touch_start ("single", "scroll", "dragging")
	Mode string `json:"mode,omitempty"`
}

// Success reports whether the server applied the request.
func (r *Response) Success() bool {
	return r != nil && r.Status == StatusSuccess
}
