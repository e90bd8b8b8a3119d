package remediation

import (
	"context"
	"time"
)

// SimulatedAction pretends to perform a remediation by waiting Delay.
type SimulatedAction struct {
	Target  string
	Details string
	Delay   time.Duration
}

// Run implements Action. Cancellation while waiting is reported as an error.
func (a SimulatedAction) Run(ctx context.Context, req Request) (Outcome, error) {
	if a.Delay > 0 {
		timer := time.NewTimer(a.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Outcome{Target: a.Target, Details: a.Details}, nil
}

func simulated(function, description, target string, seconds float64, details string) Registration {
	return Registration{
		Function:    function,
		Description: description,
		Action: SimulatedAction{
			Target:  target,
			Details: details,
			Delay:   time.Duration(seconds * float64(time.Second)),
		},
	}
}

// DefaultActions returns the simulated action registry keyed by action id.
func DefaultActions() map[string]Registration {
	return map[string]Registration{
		"SCALE_DB_REPLICA": simulated("restart_database_service", "Restart database service",
			"database", 2.0, "Database service restarted successfully. Connection pool reset."),
		"OPTIMIZE_SLOW_QUERIES": simulated("optimize_database_queries", "Optimize slow database queries",
			"database_queries", 3.0, "Slow queries identified and optimized. New indexes created."),
		"THROTTLE_NON_ESSENTIAL_TRAFFIC": simulated("throttle_non_essential_traffic", "Throttle non-essential API traffic",
			"api_traffic", 1.0, "Non-essential API endpoints throttled. Rate limit set to 100 req/min."),
		"ENABLE_DB_CONNECTION_POOLING": simulated("enable_database_connection_pooling", "Enable database connection pooling",
			"database_connections", 1.5, "Connection pooling enabled. Pool size set to 50 connections."),
		"INCREASE_CDN_CACHE_TTL": simulated("increase_cdn_cache_ttl", "Increase CDN cache TTL",
			"cdn_cache", 0.5, "CDN cache TTL increased to 24 hours for static assets."),
		"REROUTE_TRAFFIC_GEO": simulated("reroute_traffic_geo", "Reroute traffic geographically",
			"network_routing", 2.5, "Geographic traffic rerouting enabled. Regional load balancers configured."),
		"ENABLE_TRAFFIC_COMPRESSION": simulated("enable_traffic_compression", "Enable traffic compression",
			"api_responses", 1.0, "Gzip compression enabled for API responses. Compression ratio: 70%."),
		"IMPLEMENT_CIRCUIT_BREAKER": simulated("implement_circuit_breaker", "Implement circuit breaker for external services",
			"external_services", 2.0, "Circuit breaker pattern implemented. Failure threshold set to 50%."),
		"RESTART_APPLICATION_SERVERS": simulated("restart_application_servers", "Restart application servers",
			"app_servers", 3.0, "Application servers restarted. Memory cleared and garbage collection triggered."),
		"ENABLE_GARBAGE_COLLECTION_TUNING": simulated("enable_garbage_collection_tuning", "Tune garbage collection",
			"jvm_gc", 1.5, "Garbage collection parameters tuned. GC frequency optimized."),
		"IMPLEMENT_MEMORY_MONITORING": simulated("implement_memory_monitoring", "Implement memory monitoring",
			"memory_monitoring", 2.5, "Advanced memory monitoring enabled. Alerts configured for 80% usage."),
		"AUTO_SCALE_HORIZONTAL": simulated("auto_scale_horizontal", "Enable horizontal auto-scaling",
			"app_servers", 2.0, "Horizontal auto-scaling enabled. Min: 2, Max: 10 instances."),
		"IMPLEMENT_RATE_LIMITING": simulated("implement_rate_limiting", "Implement API rate limiting",
			"api_endpoints", 1.5, "Rate limiting implemented. 1000 requests per minute per IP."),
		"ENABLE_LOAD_BALANCING": simulated("enable_load_balancing", "Enable advanced load balancing",
			"load_balancer", 2.0, "Advanced load balancing enabled. Round-robin algorithm configured."),
		"INCREASE_CACHE_SIZE": simulated("increase_cache_size", "Increase cache size",
			"redis_cache", 1.0, "Redis cache memory increased to 8GB. Cache hit rate improved."),
		"OPTIMIZE_CACHE_STRATEGY": simulated("optimize_cache_strategy", "Optimize cache strategy",
			"cache_invalidation", 2.5, "Smart cache invalidation implemented. TTL-based strategy enabled."),
		"ENABLE_CACHE_WARMING": simulated("enable_cache_warming", "Enable cache warming",
			"cache_warming", 2.0, "Proactive cache warming enabled. Critical data pre-loaded."),
		"ROLLBACK_RECENT_DEPLOYMENT": simulated("rollback_recent_deployment", "Rollback recent deployment",
			"application_deployment", 3.0, "Rollback to previous stable version completed. Application restored."),
		"ENABLE_CIRCUIT_BREAKER": simulated("enable_circuit_breaker_app", "Enable circuit breaker for failing components",
			"failing_components", 1.5, "Circuit breaker enabled for failing components. Fallback mechanisms activated."),
		"IMPLEMENT_GRACEFUL_DEGRADATION": simulated("implement_graceful_degradation", "Implement graceful degradation",
			"non_critical_features", 2.5, "Graceful degradation implemented. Non-critical features disabled."),
		"SCALE_UP_INFRASTRUCTURE": simulated("scale_up_infrastructure", "Scale up infrastructure",
			"infrastructure", 3.5, "Infrastructure scaled up. CPU and memory resources increased by 50%."),
		"OPTIMIZE_RESOURCE_ALLOCATION": simulated("optimize_resource_allocation", "Optimize resource allocation",
			"service_resources", 2.5, "Resource allocation optimized. CPU and memory redistributed across services."),
		"IMPLEMENT_RESOURCE_QUOTAS": simulated("implement_resource_quotas", "Implement resource quotas",
			"resource_quotas", 2.0, "Resource quotas implemented. Memory limits set per service."),
		"CLEANUP_LOG_FILES": simulated("cleanup_log_files", "Clean up log files",
			"log_files", 1.5, "Old log files cleaned up. 2.5GB of disk space freed."),
		"INCREASE_DISK_STORAGE": simulated("increase_disk_storage", "Increase disk storage",
			"disk_storage", 3.0, "Additional 100GB disk storage added. Storage utilization reduced to 60%."),
		"IMPLEMENT_LOG_ROTATION": simulated("implement_log_rotation", "Implement log rotation",
			"log_rotation", 1.5, "Automated log rotation implemented. Daily rotation with compression enabled."),
	}
}
