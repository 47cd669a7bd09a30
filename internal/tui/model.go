package tui

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/tinytelemetry/hllstatus/internal/model"
	"github.com/tinytelemetry/hllstatus/internal/poller"
	"github.com/tinytelemetry/hllstatus/internal/publish"
	"github.com/tinytelemetry/hllstatus/internal/status"
)

// Session is the poll session contract the status screen drives.
// *poller.Session satisfies it.
type Session interface {
	Start(ctx context.Context) error
	Stop()
	Refresh() (int, error)
	Active() bool
	Interval() time.Duration
	Health() map[model.Domain]poller.DomainHealth
}

// Options configures a StatusModel.
type Options struct {
	// RefreshLimit is the minimum spacing between manual refreshes.
	RefreshLimit time.Duration
	// DataSource is shown in the status bar, e.g. "CRCON" or "Socket".
	DataSource string
	// Now overrides the clock used for relative times.
	Now func() time.Time
}

// StatusModel renders the live status of one server. It starts its poll
// session when mounted and stops it when unmounted, and reads published
// views from a Mailbox so the poller never blocks on the UI.
type StatusModel struct {
	session    Session
	mailbox    *publish.Mailbox
	limiter    *rate.Limiter
	keys       KeyMap
	help       help.Model
	dataSource string
	now        func() time.Time

	width    int
	height   int
	showHelp bool

	view  status.View
	title string
	seq   uint64

	health    map[model.Domain]poller.DomainHealth
	notice    string
	noticeAt  time.Time
	startErr  error
	mounted   bool
	mnt       *mount
	refreshes int
}

// mount is one mounted period of the screen. A session start that is
// scheduled after the period ends is dropped.
type mount struct {
	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

func newMount() *mount { return &mount{done: make(chan struct{})} }

func (mt *mount) start(fn func() error) (bool, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.closed {
		return false, nil
	}
	return true, fn()
}

func (mt *mount) end() {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if !mt.closed {
		mt.closed = true
		close(mt.done)
	}
}

// TickMsg re-renders relative times and refreshes health once a second.
type TickMsg time.Time

// viewUpdatedMsg carries the latest published view out of the mailbox.
type viewUpdatedMsg struct {
	view  status.View
	title string
	seq   uint64
}

// sessionStartedMsg reports the outcome of mounting the session.
type sessionStartedMsg struct {
	err error
}

const (
	uiTickInterval = time.Second
	noticeTTL      = 5 * time.Second
)

// NewStatusModel creates the status screen model.
func NewStatusModel(session Session, mailbox *publish.Mailbox, opts Options) *StatusModel {
	limit := opts.RefreshLimit
	if limit <= 0 {
		limit = model.DefaultRefreshLimit
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if mailbox == nil {
		mailbox = publish.NewMailbox()
	}
	return &StatusModel{
		session:    session,
		mailbox:    mailbox,
		limiter:    rate.NewLimiter(rate.Every(limit), 1),
		keys:       DefaultKeyMap(),
		help:       help.New(),
		dataSource: opts.DataSource,
		now:        now,
		health:     make(map[model.Domain]poller.DomainHealth),
	}
}

// Init mounts the session and starts listening for published views.
func (m *StatusModel) Init() tea.Cmd {
	m.mounted = true
	m.mnt = newMount()
	return tea.Batch(
		m.startSessionCmd(),
		waitForView(m.mailbox, m.mnt.done),
		tickCmd(),
	)
}

// Unmount stops the bound session. Safe to call repeatedly.
func (m *StatusModel) Unmount() {
	m.mounted = false
	if m.mnt != nil {
		m.mnt.end()
	}
	if m.session != nil {
		m.session.Stop()
	}
}

func (m *StatusModel) startSessionCmd() tea.Cmd {
	session, mnt := m.session, m.mnt
	return func() tea.Msg {
		if session == nil {
			return sessionStartedMsg{}
		}
		start := func() error { return session.Start(context.Background()) }
		if mnt == nil {
			return sessionStartedMsg{err: start()}
		}
		ok, err := mnt.start(start)
		if !ok {
			return nil
		}
		return sessionStartedMsg{err: err}
	}
}

func (m *StatusModel) unmounted() <-chan struct{} {
	if m.mnt == nil {
		return nil
	}
	return m.mnt.done
}

// waitForView blocks until the mailbox is signaled, then returns its
// latest content. It is re-armed after every delivery and gives up with
// no message once done is closed.
func waitForView(mb *publish.Mailbox, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-mb.C():
		case <-done:
			return nil
		}
		view, title, seq := mb.Latest()
		return viewUpdatedMsg{view: view, title: title, seq: seq}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(uiTickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m *StatusModel) setNotice(text string) {
	m.notice = text
	m.noticeAt = m.now()
}

func (m *StatusModel) activeNotice() string {
	if m.notice == "" || m.now().Sub(m.noticeAt) > noticeTTL {
		return ""
	}
	return m.notice
}
