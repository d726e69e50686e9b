package config

import "time"

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	HttpPort                int
	StorageType             StorageType
	RedisConfig             RedisStorageConfig
	Pools                   PoolsConfig
	WorkDir                 string
	LogLevel                string
	ScheduleTick            time.Duration
	MaxScheduleDelaySeconds int64
}

type RedisStorageConfig struct {
	Addrs     []string
	Namespace string
}

// PoolsConfig sizes the four worker pools. Overflow and shutdown policy per
// pool is fixed by workload class, only capacity is tunable.
type PoolsConfig struct {
	PrimarySize    int
	AdapterSize    int
	FlowSize       int
	MonitoringSize int
}

func Default() Config {
	return Config{
		HttpPort:    8080,
		StorageType: STORAGE_TYPE_INMEM,
		RedisConfig: RedisStorageConfig{
			Addrs:     []string{"localhost:6379"},
			Namespace: "h2h",
		},
		Pools: PoolsConfig{
			PrimarySize:    8,
			AdapterSize:    8,
			FlowSize:       4,
			MonitoringSize: 2,
		},
		WorkDir:                 "/tmp/h2h/work",
		LogLevel:                "info",
		ScheduleTick:            time.Second,
		MaxScheduleDelaySeconds: 86400,
	}
}
