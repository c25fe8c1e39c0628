package chathub

import "github.com/fyefbv/common-ground-api/internal/models"

// Client is the interface for any type of connection attached to a
// roulette session. It abstracts the underlying communication
// mechanism, allowing the registry to manage different client types
// uniformly.
type Client interface {
	// GetProfileID returns the profile the client authenticates as.
	GetProfileID() string
	// GetSessionID returns the roulette session the client is attached to.
	GetSessionID() string

	// TrySend attempts a non-blocking delivery of one event. It returns
	// false when the client can no longer accept events, either because
	// its buffer is full or because it is already closed.
	TrySend(event models.Event) bool

	// Run starts the client's read and write pumps.
	Run()
	// Close gracefully shuts down the client's connection and channels.
	Close()
}
