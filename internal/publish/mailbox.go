package publish

import (
	"sync"

	"github.com/tinytelemetry/hllstatus/internal/status"
)

// Mailbox is a latest-value sink. Render never blocks: a newer view
// replaces an unread older one. Readers receive from C and call Latest.
type Mailbox struct {
	mu     sync.Mutex
	latest status.View
	title  string
	seq    uint64
	notify chan struct{}
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

// Render stores view and signals a waiting reader.
func (m *Mailbox) Render(view status.View) {
	m.mu.Lock()
	m.latest = view
	m.seq++
	m.mu.Unlock()
	m.signal()
}

// SetTitle stores the title so a mailbox can also act as the title surface.
func (m *Mailbox) SetTitle(title string) {
	m.mu.Lock()
	m.title = title
	m.mu.Unlock()
}

// C is signaled whenever a new view has been rendered.
func (m *Mailbox) C() <-chan struct{} { return m.notify }

// Latest returns the most recent view, its title and a sequence number
// that increases with every Render.
func (m *Mailbox) Latest() (status.View, string, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest, m.title, m.seq
}

func (m *Mailbox) signal() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}
