package store

import "time"

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// ConnectAttempts bounds boot pings; 0 means 20
	ConnectAttempts int
	// PingTimeout bounds a single boot ping; 0 means 3s
	PingTimeout time.Duration
}
