package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/nexusmind/pkg/domain"
)

// SSE event names.
const (
	EventSessionStart  = "session_start"
	EventStageFinish   = "stage_finish"
	EventHalt          = "halt"
	EventSessionFinish = "session_finish"
)

// Message is one server-sent event.
type Message struct {
	Event string
	Data  string
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Message]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan Message]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 16)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan Message]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Subscribers returns the number of open subscriptions for a session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

func (sm *StreamManager) Broadcast(sessionID string, msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID, "event", msg.Event)
		}
	}
}

func (sm *StreamManager) publish(sessionID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		sm.logger.Error("SSE: payload encode failed", "event", event, "err", err)
		return
	}
	sm.Broadcast(sessionID, Message{Event: event, Data: string(data)})
}

// Hooks returns lifecycle hooks that broadcast session progress to subscribers.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(_ context.Context, e *domain.SessionEvent) {
			sm.publish(e.SessionID, EventSessionStart, map[string]any{"query": e.Query})
		},
		OnStageFinish: func(_ context.Context, e *domain.StageEvent) {
			payload := map[string]any{"stage": e.Stage.DisplayName(), "duration_ms": e.Duration.Milliseconds()}
			if e.Entry != nil {
				payload["stage_number"] = e.Entry.StageNumber
				payload["summary"] = e.Entry.Summary
				if e.Entry.Error != "" {
					payload["error"] = e.Entry.Error
				}
			}
			sm.publish(e.SessionID, EventStageFinish, payload)
		},
		OnHalt: func(_ context.Context, e *domain.HaltEvent) {
			sm.publish(e.SessionID, EventHalt, map[string]any{"message": e.Message, "reason": e.Reason})
		},
		OnSessionFinish: func(_ context.Context, e *domain.SessionEvent) {
			sm.publish(e.SessionID, EventSessionFinish, map[string]any{
				"status":            e.Status,
				"confidence_vector": e.Confidence,
			})
		},
	}
}
