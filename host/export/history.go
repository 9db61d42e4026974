// Package export saves what the display node drew
package export

import (
	"sync"

	"drawlink/core"
	"drawlink/protocol"
)

// History is a core.Renderer that records lines drawn since the last
// clear and passes every call on to next
type History struct {
	next core.Renderer

	mu     sync.Mutex
	lines  []protocol.Line
	status string
}

func NewHistory(next core.Renderer) *History {
	return &History{next: next}
}

func (h *History) DrawLine(l protocol.Line) error {
	if err := h.next.DrawLine(l); err != nil {
		return err
	}
	h.mu.Lock()
	h.lines = append(h.lines, l)
	h.mu.Unlock()
	return nil
}

func (h *History) Clear() error {
	if err := h.next.Clear(); err != nil {
		return err
	}
	h.mu.Lock()
	h.lines = nil
	h.mu.Unlock()
	return nil
}

func (h *History) ShowStatus(text string) error {
	err := h.next.ShowStatus(text)
	h.mu.Lock()
	h.status = text
	h.mu.Unlock()
	return err
}

// Lines returns a copy of the recorded lines
func (h *History) Lines() []protocol.Line {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]protocol.Line(nil), h.lines...)
}

// Status returns the last status text
func (h *History) Status() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}
