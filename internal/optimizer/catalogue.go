package optimizer

func candidate(action, description string, cost, gain, risk, minutes float64, rev Reversibility, deps []string, function string) Candidate {
	return Candidate{
		Action:             action,
		Description:        description,
		Cost:               cost,
		PerformanceGain:    gain,
		Risk:               risk,
		ImplementationTime: minutes,
		Reversibility:      rev,
		Dependencies:       deps,
		Remediation:        RemediationRef{Function: function, Parameters: map[string]any{}},
	}
}

// DefaultCatalogue returns the production remediation catalogue keyed by cause.
func DefaultCatalogue() map[string][]Candidate {
	const (
		dba      = "database_admin"
		infra    = "infrastructure_team"
		dev      = "development_team"
		devops   = "devops_team"
		network  = "network_team"
		monitors = "monitoring_team"
	)

	return map[string][]Candidate{
		"database_load": {
			candidate("SCALE_DB_REPLICA", "Scale database with read replicas",
				80, 90, 30, 15, ReversibilityHigh, []string{dba, infra}, "restart_database_service"),
			candidate("OPTIMIZE_SLOW_QUERIES", "Optimize and index slow database queries",
				30, 70, 60, 45, ReversibilityMedium, []string{dba, dev}, "optimize_database_queries"),
			candidate("THROTTLE_NON_ESSENTIAL_TRAFFIC", "Implement traffic throttling for non-critical requests",
				10, 50, 20, 5, ReversibilityHigh, []string{devops}, "throttle_non_essential_traffic"),
			candidate("ENABLE_DB_CONNECTION_POOLING", "Enable advanced database connection pooling",
				20, 60, 15, 10, ReversibilityHigh, []string{dba}, "enable_database_connection_pooling"),
		},
		"network_issue": {
			candidate("INCREASE_CDN_CACHE_TTL", "Increase CDN cache time-to-live for static assets",
				20, 60, 10, 2, ReversibilityHigh, []string{devops}, "increase_cdn_cache_ttl"),
			candidate("REROUTE_TRAFFIC_GEO", "Implement geographic traffic rerouting",
				50, 80, 40, 30, ReversibilityMedium, []string{devops, network}, "reroute_traffic_geo"),
			candidate("ENABLE_TRAFFIC_COMPRESSION", "Enable gzip compression for API responses",
				15, 40, 5, 5, ReversibilityHigh, []string{devops}, "enable_traffic_compression"),
			candidate("IMPLEMENT_CIRCUIT_BREAKER", "Implement circuit breaker pattern for external services",
				40, 70, 25, 20, ReversibilityMedium, []string{dev}, "implement_circuit_breaker"),
		},
		"memory_leak": {
			candidate("RESTART_APPLICATION_SERVERS", "Restart application servers to clear memory",
				5, 95, 80, 3, ReversibilityHigh, []string{devops}, "restart_application_servers"),
			candidate("ENABLE_GARBAGE_COLLECTION_TUNING", "Tune garbage collection parameters",
				25, 60, 30, 15, ReversibilityMedium, []string{dev, devops}, "enable_garbage_collection_tuning"),
			candidate("IMPLEMENT_MEMORY_MONITORING", "Deploy advanced memory monitoring and alerting",
				35, 30, 10, 25, ReversibilityHigh, []string{devops, monitors}, "implement_memory_monitoring"),
		},
		"high_traffic": {
			candidate("AUTO_SCALE_HORIZONTAL", "Enable horizontal auto-scaling for application servers",
				60, 85, 35, 10, ReversibilityHigh, []string{devops, infra}, "auto_scale_horizontal"),
			candidate("IMPLEMENT_RATE_LIMITING", "Implement API rate limiting per user/IP",
				20, 70, 25, 15, ReversibilityHigh, []string{dev}, "implement_rate_limiting"),
			candidate("ENABLE_LOAD_BALANCING", "Configure advanced load balancing algorithms",
				40, 75, 20, 20, ReversibilityMedium, []string{devops}, "enable_load_balancing"),
		},
		"cache_miss": {
			candidate("INCREASE_CACHE_SIZE", "Increase Redis cache memory allocation",
				30, 80, 15, 5, ReversibilityHigh, []string{devops}, "increase_cache_size"),
			candidate("OPTIMIZE_CACHE_STRATEGY", "Implement smarter cache invalidation strategy",
				45, 65, 40, 30, ReversibilityMedium, []string{dev}, "optimize_cache_strategy"),
			candidate("ENABLE_CACHE_WARMING", "Implement proactive cache warming for critical data",
				25, 55, 20, 20, ReversibilityHigh, []string{dev}, "enable_cache_warming"),
		},
		"application_bug": {
			candidate("ROLLBACK_RECENT_DEPLOYMENT", "Rollback to previous stable deployment",
				10, 90, 70, 5, ReversibilityHigh, []string{devops}, "rollback_recent_deployment"),
			candidate("ENABLE_CIRCUIT_BREAKER", "Enable circuit breaker for failing components",
				15, 60, 20, 10, ReversibilityHigh, []string{dev}, "enable_circuit_breaker_app"),
			candidate("IMPLEMENT_GRACEFUL_DEGRADATION", "Implement graceful degradation for non-critical features",
				35, 50, 30, 25, ReversibilityMedium, []string{dev}, "implement_graceful_degradation"),
		},
		"resource_exhaustion": {
			candidate("SCALE_UP_INFRASTRUCTURE", "Scale up CPU and memory resources",
				100, 95, 20, 15, ReversibilityHigh, []string{infra}, "scale_up_infrastructure"),
			candidate("OPTIMIZE_RESOURCE_ALLOCATION", "Optimize resource allocation across services",
				40, 70, 35, 30, ReversibilityMedium, []string{devops, dev}, "optimize_resource_allocation"),
			candidate("IMPLEMENT_RESOURCE_QUOTAS", "Implement resource quotas and limits",
				25, 45, 25, 20, ReversibilityHigh, []string{devops}, "implement_resource_quotas"),
		},
		"disk_space": {
			candidate("CLEANUP_LOG_FILES", "Clean up old log files and temporary data",
				5, 80, 10, 10, ReversibilityHigh, []string{devops}, "cleanup_log_files"),
			candidate("INCREASE_DISK_STORAGE", "Add additional disk storage capacity",
				50, 95, 15, 20, ReversibilityHigh, []string{infra}, "increase_disk_storage"),
			candidate("IMPLEMENT_LOG_ROTATION", "Implement automated log rotation and compression",
				20, 60, 5, 15, ReversibilityHigh, []string{devops}, "implement_log_rotation"),
		},
	}
}
