package storage

import "sync"

// ChangeHub fans out per-user change notifications from the note store to
// live dashboard subscribers. Notifications are coalescing signals, not
// payloads: each delivery tells the subscriber to re-read the full snapshot.
type ChangeHub struct {
	mu   sync.Mutex
	subs map[int64]map[chan struct{}]struct{}
}

func NewChangeHub() *ChangeHub {
	return &ChangeHub{subs: make(map[int64]map[chan struct{}]struct{})}
}

// Subscribe registers a listener for one user's changes. The returned cancel
// function must be called when the consuming view is torn down.
func (h *ChangeHub) Subscribe(userID int64) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan struct{}]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, userID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Notify signals every subscriber of the user. A subscriber that already has
// a pending signal is not blocked on; the pending signal covers this change.
func (h *ChangeHub) Notify(userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
