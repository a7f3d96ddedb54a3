// Package tray shows the bridge status in the system tray using getlantern/systray.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"touchbridge/internal/feedback"
)

const title = "TouchBridge"

// MenuItem is a menu entry and the function run when it is clicked.
type MenuItem struct {
	Title    string
	Tooltip  string
	Callback func()
	item     *systray.MenuItem
}

// Tray manages the tray icon and menu. It implements feedback.Sink: the
// latest status is shown in the tooltip and the connection state in the title.
type Tray struct {
	items  []*MenuItem
	quitCh chan struct{}

	mu        sync.Mutex
	ready     bool
	status    string
	connected bool
}

var _ feedback.Sink = (*Tray)(nil)

// New creates a tray showing status until the first update.
func New(status string) *Tray {
	return &Tray{
		quitCh:    make(chan struct{}),
		status:    status,
		connected: true,
	}
}

// AddMenuItem adds a menu item. Items must be added before Run.
func (t *Tray) AddMenuItem(title, tooltip string, callback func()) {
	t.items = append(t.items, &MenuItem{Title: title, Tooltip: tooltip, Callback: callback})
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.items = append(t.items, nil)
}

// Run starts the tray event loop. It blocks until Stop and must be called
// from the main goroutine on macOS.
func (t *Tray) Run() {
	systray.Run(t.setup, func() { close(t.quitCh) })
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

func (t *Tray) setup() {
	systray.SetIcon(getIcon())

	t.mu.Lock()
	t.ready = true
	t.apply()
	t.mu.Unlock()

	for _, menuItem := range t.items {
		if menuItem == nil {
			systray.AddSeparator()
			continue
		}
		menuItem.item = systray.AddMenuItem(menuItem.Title, menuItem.Tooltip)
		if menuItem.Callback == nil {
			continue
		}
		go func(mi *MenuItem) {
			for {
				select {
				case <-mi.item.ClickedCh:
					mi.Callback()
				case <-t.quitCh:
					return
				}
			}
		}(menuItem)
	}
}

// ShowFeedback is a no-op; the tray only tracks status.
func (t *Tray) ShowFeedback(feedback.Category) {}

// SetStatus records the status and shows it once the tray is running.
func (t *Tray) SetStatus(msg string, connected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = msg
	t.connected = connected
	if t.ready {
		t.apply()
	}
}

// Status returns the last status shown.
func (t *Tray) Status() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status, t.connected
}

// apply pushes the current state to the tray. Caller holds mu.
func (t *Tray) apply() {
	systray.SetTitle(titleFor(t.connected))
	systray.SetTooltip(title + ": " + t.status)
}

func titleFor(connected bool) string {
	if connected {
		return title
	}
	return title + " (offline)"
}

// getIcon returns a placeholder icon (valid 16x16 ICO)
func getIcon() []byte {
	icon := make([]byte, 1118)
	// ICO header: reserved, type 1 (icon), one image
	copy(icon[0:6], []byte{0x00, 0x00, 0x01, 0x00, 0x01, 0x00})
	// Directory entry: 16x16, 32 bpp, 1096 bytes at offset 22
	copy(icon[6:22], []byte{
		0x10, 0x10, 0x00, 0x00, 0x01, 0x00, 0x20, 0x00,
		0x48, 0x04, 0x00, 0x00,
		0x16, 0x00, 0x00, 0x00,
	})
	// BITMAPINFOHEADER; height is doubled for the AND mask
	copy(icon[22:62], []byte{
		0x28, 0x00, 0x00, 0x00,
		0x10, 0x00, 0x00, 0x00,
		0x20, 0x00, 0x00, 0x00,
		0x01, 0x00,
		0x20, 0x00,
	})
	// Fill the pixels with an opaque sky blue (BGRA)
	for i := 62; i < 62+16*16*4; i += 4 {
		copy(icon[i:i+4], []byte{0xf8, 0xbd, 0x38, 0xff})
	}
	return icon
}
