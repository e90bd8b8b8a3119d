package entanglement

// DefaultLinks is the production entanglement graph.
func DefaultLinks() map[string][]string {
	return map[string][]string{
		"cpu_usage":            {"active_users", "api_latency_p99", "request_rate"},
		"memory_usage":         {"database_connections", "cache_hit_rate", "garbage_collection_time"},
		"disk_usage":           {"io_operations", "backup_status", "log_rotation"},
		"network_io":           {"api_latency_p95", "bandwidth_utilization", "packet_loss"},
		"database_connections": {"query_response_time", "connection_pool_usage", "deadlock_count"},
		"cache_hit_rate":       {"api_latency_p99", "user_session_duration", "page_load_time"},
		"active_users":         {"cpu_usage", "memory_usage", "api_latency_p95"},
		"api_latency_p99":      {"user_bounce_rate", "error_rate", "throughput"},
		"error_rate":           {"api_latency_p95", "user_satisfaction", "system_uptime"},
		"request_rate":         {"cpu_usage", "memory_usage", "database_connections"},
	}
}

// DefaultThresholds is the production threshold table. Units: percent for
// usage and rates, MB/s for network_io, ms for latency, req/s for request_rate.
func DefaultThresholds() map[string]Threshold {
	return map[string]Threshold{
		"cpu_usage":            {Warning: 75, Critical: 90},
		"memory_usage":         {Warning: 70, Critical: 85},
		"disk_usage":           {Warning: 80, Critical: 90},
		"network_io":           {Warning: 800, Critical: 1000},
		"database_connections": {Warning: 60, Critical: 80},
		"cache_hit_rate":       {Warning: 75, Critical: 60, Direction: LowerIsWorse},
		"active_users":         {Warning: 8000, Critical: 10000},
		"api_latency_p99":      {Warning: 500, Critical: 1000},
		"error_rate":           {Warning: 2, Critical: 5},
		"request_rate":         {Warning: 800, Critical: 1000},
	}
}

// DefaultMap builds a Map from the production tables.
func DefaultMap() *Map {
	return NewMap(DefaultLinks(), DefaultThresholds())
}
