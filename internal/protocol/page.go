package protocol

// PageEventType is the type of a message sent by the touchpad page.
type PageEventType string

const (
	PageTouchStart PageEventType = "start"
	PageTouchMove  PageEventType = "move"
	PageTouchEnd   PageEventType = "end"
	PageWheel      PageEventType = "wheel"
	PageReset      PageEventType = "reset"
)

// PagePoint is a raw client-area coordinate reported by the page.
type PagePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PageEvent is a raw input snapshot sent by the page over the WebSocket.
// For "end" events Touches holds the changed (lifted) touches.
type PageEvent struct {
	Type    PageEventType `json:"type"`
	Touches []PagePoint   `json:"touches,omitempty"`
	DX      float64       `json:"dx,omitempty"`
	DY      float64       `json:"dy,omitempty"`
}

// NoticeType is the type of a message pushed to the page.
type NoticeType string

const (
	NoticeFeedback NoticeType = "feedback"
	NoticeStatus   NoticeType = "status"
)

// PageNotice is feedback pushed from the bridge to the page.
type PageNotice struct {
	Type      NoticeType `json:"type"`
	Category  string     `json:"category,omitempty"`
	Message   string     `json:"message,omitempty"`
	Connected bool       `json:"connected"`
}
