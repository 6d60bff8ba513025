package constants

import "time"

var SessionConfig = struct {
	TTL          time.Duration
	ReadyTimeout time.Duration
}{
	TTL:          30 * time.Minute,
	ReadyTimeout: 5 * time.Second,
}

var WebSocketConfig = struct {
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
}{
	MaxReconnectAttempts: 5,
	ReconnectDelay:       5 * time.Second,
}

var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}{
	FailureThreshold: 3,
	ResetTimeout:     30 * time.Second,
}

var InputLimits = struct {
	MaxUtteranceRunes int
}{
	MaxUtteranceRunes: 500,
}

var WorkerConfig = struct {
	MaxConcurrentTurns int
	TurnTimeout        time.Duration
}{
	MaxConcurrentTurns: 8,
	TurnTimeout:        10 * time.Second,
}

var HTTPConfig = struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}{
	ReadTimeout:     10 * time.Second,
	WriteTimeout:    15 * time.Second,
	ShutdownTimeout: 10 * time.Second,
}
