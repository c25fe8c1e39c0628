package chathub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fyefbv/common-ground-api/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventBus is the cross-instance fanout the registry publishes to and
// consumes from. *storage.Service satisfies it with Redis Pub/Sub.
type EventBus interface {
	PublishEvent(event models.Event) error
	SubscribeEvents() *redis.PubSub
}

// Registry tracks the WebSocket connections of roulette session
// participants: sessionID → profileID → Client. It implements the
// delivery gateway consumed by the roulette engine. All delivery is
// best-effort: a failed or slow client is dropped, never retried, and
// never affects session state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]Client

	bus EventBus
	log *zap.SugaredLogger
}

func NewRegistry(bus EventBus, log *zap.SugaredLogger) *Registry {
	return &Registry{
		sessions: make(map[string]map[string]Client),
		bus:      bus,
		log:      log,
	}
}

// Register додає клієнта до реєстру його сесії.
func (r *Registry) Register(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID := c.GetSessionID()
	if r.sessions[sessionID] == nil {
		r.sessions[sessionID] = make(map[string]Client)
	}
	r.sessions[sessionID][c.GetProfileID()] = c

	r.log.Infow("client registered",
		"session_id", sessionID, "profile_id", c.GetProfileID())
}

// Unregister видаляє клієнта; порожня сесія прибирається з мапи.
func (r *Registry) Unregister(c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID := c.GetSessionID()
	participants, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	if current, ok := participants[c.GetProfileID()]; !ok || current != c {
		return
	}

	delete(participants, c.GetProfileID())
	if len(participants) == 0 {
		delete(r.sessions, sessionID)
	}

	r.log.Infow("client unregistered",
		"session_id", sessionID, "profile_id", c.GetProfileID())
}

// Deliver pushes an event to one locally connected participant. Unlike
// Broadcast it does not cross instances; callers use it for events that
// only concern the connection itself (connection_established, pong,
// errors).
func (r *Registry) Deliver(sessionID, profileID string, event models.Event) {
	r.mu.RLock()
	client, ok := r.sessions[sessionID][profileID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	r.send(client, event)
}

// Broadcast publishes an event for every participant of the session,
// across all instances, optionally excluding one profile. The local
// fanout happens in Run when the event comes back from Redis.
func (r *Registry) Broadcast(sessionID string, event models.Event, excludeProfileID string) {
	event.SessionID = sessionID
	event.ExcludeProfileID = excludeProfileID

	if err := r.bus.PublishEvent(event); err != nil {
		r.log.Errorw("failed to publish session event",
			"session_id", sessionID, "type", event.Type, "error", err)
	}
}

// Participants повертає профілі, підключені до сесії на цьому інстансі.
func (r *Registry) Participants(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	participants := r.sessions[sessionID]
	ids := make([]string, 0, len(participants))
	for profileID := range participants {
		ids = append(ids, profileID)
	}
	return ids
}

// PartnerOf returns the other locally connected participant, if any.
func (r *Registry) PartnerOf(sessionID, profileID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for pid := range r.sessions[sessionID] {
		if pid != profileID {
			return pid, true
		}
	}
	return "", false
}

// Run споживає канал Redis Pub/Sub і роздає події локальним клієнтам.
// Завершується лише при скасуванні контексту.
func (r *Registry) Run(ctx context.Context) error {
	pubsub := r.bus.SubscribeEvents()
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event models.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.log.Errorw("failed to decode pubsub event", "error", err)
				continue
			}
			r.deliverLocal(event)
		}
	}
}

// deliverLocal роздає подію всім локальним учасникам її сесії, окрім
// виключеного профілю.
func (r *Registry) deliverLocal(event models.Event) {
	r.mu.RLock()
	participants := r.sessions[event.SessionID]
	clients := make([]Client, 0, len(participants))
	for profileID, client := range participants {
		if profileID == event.ExcludeProfileID {
			continue
		}
		clients = append(clients, client)
	}
	r.mu.RUnlock()

	for _, client := range clients {
		r.send(client, event)
	}
}

// send намагається доставити подію клієнту. Повільний або вже закритий
// клієнт відключається, щоб не блокувати роздачу. Unregister і Close
// тут безпечні для конкурентних викликів, тож дві горутини роздачі
// можуть відкинути одного клієнта одночасно.
func (r *Registry) send(client Client, event models.Event) {
	if client.TrySend(event) {
		return
	}
	r.log.Warnw("dropping slow client",
		"session_id", client.GetSessionID(), "profile_id", client.GetProfileID())
	r.Unregister(client)
	client.Close()
}
