package scope

import "sync"

// The event types below implement the synchronous publish/subscribe
// contract between channels, measurements and their consumers. Handlers
// are invoked in subscription order with payloads that are not referenced
// by the publisher afterwards. Unsubscribe functions are idempotent.

type frameSub struct {
	id int
	fn FrameHandler
}

type frameHandlers struct {
	mu   sync.Mutex
	next int
	subs []frameSub
}

func (h *frameHandlers) subscribe(fn FrameHandler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.subs = append(h.subs, frameSub{id: id, fn: fn})
	return func() { h.remove(id) }
}

func (h *frameHandlers) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.subs {
		if h.subs[i].id == id {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			return
		}
	}
}

func (h *frameHandlers) publish(f Frame) {
	h.mu.Lock()
	subs := make([]frameSub, len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()
	for _, s := range subs {
		s.fn(f)
	}
}

type valueSub struct {
	id int
	fn MeasurementHandler
}

type valueHandlers struct {
	mu   sync.Mutex
	next int
	subs []valueSub
}

func (h *valueHandlers) subscribe(fn MeasurementHandler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.subs = append(h.subs, valueSub{id: id, fn: fn})
	return func() { h.remove(id) }
}

func (h *valueHandlers) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.subs {
		if h.subs[i].id == id {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			return
		}
	}
}

func (h *valueHandlers) publish(v float64) {
	h.mu.Lock()
	subs := make([]valueSub, len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()
	for _, s := range subs {
		s.fn(v)
	}
}

// ChunkPublisher fans raw sample chunks out to subscribed consumers. The
// zero value is ready to use. Source implementations embed it to satisfy
// the Subscribe half of the Source interface.
type ChunkPublisher struct {
	mu   sync.Mutex
	next int
	subs []chunkSub
}

type chunkSub struct {
	id int
	fn ChunkHandler
}

// Subscribe registers a chunk consumer and returns its unsubscribe func.
func (p *ChunkPublisher) Subscribe(fn ChunkHandler) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.next
	p.next++
	p.subs = append(p.subs, chunkSub{id: id, fn: fn})
	return func() { p.remove(id) }
}

func (p *ChunkPublisher) remove(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.subs {
		if p.subs[i].id == id {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers chunk to every subscriber in subscription order.
func (p *ChunkPublisher) Publish(chunk []float64) {
	p.mu.Lock()
	subs := make([]chunkSub, len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()
	for _, s := range subs {
		s.fn(chunk)
	}
}
