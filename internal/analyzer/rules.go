package analyzer

// Cause labels produced by the default rule set.
const (
	CauseDatabaseLoad             = "database_load"
	CauseInefficientQuery         = "inefficient_query"
	CauseResourceExhaustion       = "resource_exhaustion"
	CauseMemoryLeak               = "memory_leak"
	CauseNetworkIssue             = "network_issue"
	CauseDDoSAttack               = "ddos_attack"
	CauseHighTraffic              = "high_traffic"
	CauseConnectionPoolExhaustion = "connection_pool_exhaustion"
	CauseCacheMiss                = "cache_miss"
	CauseApplicationBug           = "application_bug"
	CauseDiskSpace                = "disk_space"
	CauseLogOverflow              = "log_overflow"
)

// Comparison selects how a band compares a metric value with its limit.
type Comparison int

const (
	Above Comparison = iota
	Below
)

// Weight is an unnormalised increment added to a cause when a band fires.
type Weight struct {
	Cause  string
	Amount float64
}

// Band is one branch of a rule. Bands are checked in order and only the
// first matching band of a rule fires.
type Band struct {
	Compare Comparison
	Limit   float64
	Weights []Weight
}

func (b Band) matches(value float64) bool {
	if b.Compare == Below {
		return value < b.Limit
	}
	return value > b.Limit
}

// Rule inspects a single metric. Missing metrics read as Default.
type Rule struct {
	Metric  string
	Default float64
	Bands   []Band
}

// DefaultRules is the production rule set. Order matters: it fixes the
// insertion order used to break probability ties.
func DefaultRules() []Rule {
	return []Rule{
		{
			Metric: "cpu_usage",
			Bands: []Band{
				{Above, 90, []Weight{{CauseDatabaseLoad, 0.5}, {CauseInefficientQuery, 0.3}, {CauseResourceExhaustion, 0.2}}},
				{Above, 75, []Weight{{CauseDatabaseLoad, 0.3}, {CauseInefficientQuery, 0.2}}},
			},
		},
		{
			Metric: "memory_usage",
			Bands: []Band{
				{Above, 85, []Weight{{CauseMemoryLeak, 0.4}, {CauseDatabaseLoad, 0.3}, {CauseResourceExhaustion, 0.3}}},
				{Above, 70, []Weight{{CauseMemoryLeak, 0.2}, {CauseDatabaseLoad, 0.2}}},
			},
		},
		{
			Metric: "api_latency_p99",
			Bands: []Band{
				{Above, 800, []Weight{{CauseNetworkIssue, 0.4}, {CauseDatabaseLoad, 0.4}, {CauseInefficientQuery, 0.2}}},
				{Above, 500, []Weight{{CauseNetworkIssue, 0.2}, {CauseDatabaseLoad, 0.3}}},
			},
		},
		{
			Metric: "network_io",
			Bands: []Band{
				{Above, 1000, []Weight{{CauseNetworkIssue, 0.3}, {CauseDDoSAttack, 0.2}, {CauseHighTraffic, 0.3}}},
			},
		},
		{
			Metric: "active_users",
			Bands: []Band{
				{Above, 10000, []Weight{{CauseHighTraffic, 0.4}, {CauseDatabaseLoad, 0.3}, {CauseResourceExhaustion, 0.2}}},
			},
		},
		{
			Metric: "database_connections",
			Bands: []Band{
				{Above, 80, []Weight{{CauseDatabaseLoad, 0.5}, {CauseConnectionPoolExhaustion, 0.3}}},
			},
		},
		{
			Metric:  "cache_hit_rate",
			Default: 100,
			Bands: []Band{
				{Below, 50, []Weight{{CauseCacheMiss, 0.4}, {CauseDatabaseLoad, 0.3}}},
				{Below, 65, []Weight{{CauseCacheMiss, 0.2}}},
			},
		},
		{
			Metric: "error_rate",
			Bands: []Band{
				{Above, 5, []Weight{{CauseApplicationBug, 0.4}, {CauseDatabaseLoad, 0.2}, {CauseResourceExhaustion, 0.2}}},
				{Above, 2, []Weight{{CauseApplicationBug, 0.2}}},
			},
		},
		{
			Metric: "disk_usage",
			Bands: []Band{
				{Above, 90, []Weight{{CauseDiskSpace, 0.4}, {CauseLogOverflow, 0.3}}},
				{Above, 80, []Weight{{CauseDiskSpace, 0.2}}},
			},
		},
	}
}

// DefaultRecommendations maps causes to operator-facing advice.
func DefaultRecommendations() map[string]string {
	return map[string]string{
		CauseDatabaseLoad:       "🔍 Investigate slow queries and database performance",
		CauseNetworkIssue:       "🌐 Check network connectivity and latency",
		CauseMemoryLeak:         "🧠 Monitor memory usage patterns and garbage collection",
		CauseHighTraffic:        "📈 Consider scaling resources or implementing rate limiting",
		CauseCacheMiss:          "⚡ Optimize cache configuration and hit rates",
		CauseApplicationBug:     "🐛 Review recent deployments and error logs",
		CauseResourceExhaustion: "⚙️ Scale up system resources",
		CauseDiskSpace:          "💾 Clean up disk space and optimize storage",
	}
}
