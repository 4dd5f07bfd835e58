package internal

import (
	"time"
)

type Config struct {
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	AuthSecret           string        `env:"AUTH_SECRET,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=8080"`
	DebugPort            int           `env:"DEBUG_PORT,default=0"`
	AdminIdentity        string        `env:"ADMIN_IDENTITY,default=c2009546b62e8bf62a4b1387664842c54821f56214e6e6897021091f3f5a053f"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=720h"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	CommitBufferSize     int           `env:"COMMIT_BUFFER_SIZE,default=256"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=2s"`
	TransactionRetries   int           `env:"TRANSACTION_RETRIES,default=5"`
	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL,default=30s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	LowCapacityThreshold int           `env:"LOW_CAPACITY_THRESHOLD,default=80"`
}
