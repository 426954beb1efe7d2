package domain

import "time"

type HealthStatus struct {
	DatabaseHealthy bool      `json:"database_healthy"`
	RedisHealthy    bool      `json:"redis_healthy"`
	BrokerHealthy   bool      `json:"broker_healthy"`
	StoreDriver     string    `json:"store_driver"`
	ServerTime      time.Time `json:"server_time"`
}

func (h HealthStatus) Healthy() bool {
	return h.DatabaseHealthy
}
