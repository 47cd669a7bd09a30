// Package publish pushes merged status views to the title surface and the
// presentation sinks.
package publish

import (
	"github.com/tinytelemetry/hllstatus/internal/status"
)

// TitleSurface receives the derived title string, e.g. "(42) SRV".
type TitleSurface interface {
	SetTitle(title string)
}

// Sink renders or stores a full view. Implementations must not block the
// caller; the poller publishes while holding its session lock.
type Sink interface {
	Render(view status.View)
}

// TitleFunc adapts a plain function to TitleSurface.
type TitleFunc func(title string)

func (f TitleFunc) SetTitle(title string) { f(title) }

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(view status.View)

func (f SinkFunc) Render(view status.View) { f(view) }

// Publisher fans a view out to one title surface and any number of sinks.
// Calling Publish repeatedly with the same view is harmless.
type Publisher struct {
	title TitleSurface
	sinks []Sink
}

// New creates a Publisher. title may be nil.
func New(title TitleSurface, sinks ...Sink) *Publisher {
	kept := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Publisher{title: title, sinks: kept}
}

// Publish writes view.Title() to the title surface and hands view to every sink.
func (p *Publisher) Publish(view status.View) {
	if p == nil {
		return
	}
	if p.title != nil {
		p.title.SetTitle(view.Title())
	}
	for _, s := range p.sinks {
		s.Render(view)
	}
}
