// Package cast implements the best-effort Server-Sent Events channel
// that mirrors study sessions and deck changes to attached displays.
//
// Delivery is one-way push with no acknowledgement: a slow or absent
// client is skipped, and nothing feeds back into session state.
package cast

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/marbeck/flashdeck/internal/models"
	"github.com/marbeck/flashdeck/internal/study"
)

// CardMessage mirrors the card a session is currently showing.
type CardMessage struct {
	Type     string      `json:"type"` // always "card"
	Card     models.Card `json:"card"`
	ShowBack bool        `json:"showBack"`
	Idx      int         `json:"idx"` // 1-based
	Total    int         `json:"total"`
}

// ResultsMessage carries a finished test score.
type ResultsMessage struct {
	Type  string      `json:"type"` // always "results"
	Score study.Score `json:"score"`
}

// Event is a typed SSE event to broadcast.
type Event struct {
	Type string
	Data any
}

type deckEventReq struct {
	kind string
	id   string
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop owns mutable state
// (the client set and the deck-list throttle timestamp). Public methods
// communicate with this loop through channels, so no mutexes are
// required.
type Broker struct {
	listMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	deckEventCh   chan deckEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker. listThrottle bounds how often the
// aggregate "decks.changed" refresh hint is emitted.
func NewBroker(listThrottle time.Duration) *Broker {
	if listThrottle <= 0 {
		listThrottle = time.Second
	}

	b := &Broker{
		listMin:       listThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		deckEventCh:   make(chan deckEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastList time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip rather than block the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.deckEventCh:
			broadcast(Event{Type: "deck." + req.kind, Data: map[string]string{"id": req.id}})

			now := time.Now()
			if now.Sub(lastList) >= b.listMin {
				lastList = now
				broadcast(Event{Type: "decks.changed", Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an arbitrary event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishCard broadcasts the current card of a session.
func (b *Broker) PublishCard(view study.CardView) {
	b.Publish(Event{Type: "card", Data: CardMessage{
		Type:     "card",
		Card:     view.Card,
		ShowBack: view.ShowBack,
		Idx:      view.Index,
		Total:    view.Total,
	}})
}

// PublishResults broadcasts a final test score.
func (b *Broker) PublishResults(score study.Score) {
	b.Publish(Event{Type: "results", Data: ResultsMessage{Type: "results", Score: score}})
}

// PublishDeckEvent broadcasts a deck change plus a throttled
// decks.changed refresh hint. kind is created, updated or deleted.
func (b *Broker) PublishDeckEvent(kind, id string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.deckEventCh <- deckEventReq{kind: kind, id: id}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
