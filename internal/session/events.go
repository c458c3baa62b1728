package session

import "github.com/eloinsight/chessd/internal/uci"

// EventKind discriminates Event.
type EventKind int

const (
	EvtStateChanged EventKind = iota
	EvtEngineThinking
	EvtUciMessage
	EvtError
)

// Event is one typed broadcast event (spec.md §4.6).
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	Analysis *uci.EngineInfo
	UciEntry string
	Message  string
}

// broadcaster fans one event out to every current subscriber without
// blocking the actor loop: a subscriber whose buffered channel is full
// misses that event but stays subscribed.
type broadcaster struct {
	subs []chan Event
}

func (b *broadcaster) subscribe() <-chan Event {
	ch := make(chan Event, 64)
	b.subs = append(b.subs, ch)
	return ch
}

func (b *broadcaster) publish(ev Event) {
	live := b.subs[:0]
	for _, ch := range b.subs {
		select {
		case ch <- ev:
			live = append(live, ch)
		default:
			// Slow subscriber: drop the event rather than block the actor.
			live = append(live, ch)
		}
	}
	b.subs = live
}
