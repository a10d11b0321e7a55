package http

import (
	"log/slog"
	"sync"

	"github.com/aretw0/framegraph/internal/logging"
)

// StreamManager fans messages out to active SSE connections.
// Slow clients lose messages instead of stalling the publisher.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- string]struct{}
	buffer      int
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[chan<- string]struct{}),
		buffer:      10,
		logger:      logger,
	}
}

// Subscribe registers a new listener. The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, sm.buffer)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Subscribers returns the number of active listeners.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Debug("SSE: client buffer full, dropping message")
		}
	}
}
