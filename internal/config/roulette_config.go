package config

import "time"

const (
	// Matching
	MinMatchScore        = 1
	PriorityMatchWeight  = 2
	MaxPriorityInterests = 5

	// Session lifetime
	BaseSessionMinutes = 5
	ExtensionMinutes   = 5

	// Search
	DefaultMaxWaitMinutes = 10
	MaxWaitMinutesLimit   = 30
	RetryInterval         = 2 * time.Second
	SearchMaxAge          = 24 * time.Hour

	// Expiry sweep
	ExpiryHorizon  = 2 * time.Minute
	SweepIdleSleep = 60 * time.Second
	SweepMaxSleep  = 120 * time.Second

	// Rating
	MinRating = 1
	MaxRating = 5

	// Reputation
	MinReputation          = 0.0
	MaxReputation          = 5.0
	InitialReputation      = 5.0
	RatingReputationStep   = 0.1
	ConfirmedReportPenalty = 0.5
	RatingNeutralPoint     = 3

	// Messages
	MaxMessageLength = 5000
)
