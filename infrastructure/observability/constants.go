package observability

// Metric name prefixes
const (
	MetricPrefix = "skillarena"
)

// Metric names
const (
	EventsTotal           = MetricPrefix + ".events.total"
	BalanceChangesTotal   = MetricPrefix + ".wallet.balance_changes_total"
	BalanceVolume         = MetricPrefix + ".wallet.balance_volume"
	SettlementsTotal      = MetricPrefix + ".wallet.settlements_total"
	MatchTransitionsTotal = MetricPrefix + ".matches.transitions_total"
	VerificationsTotal    = MetricPrefix + ".verification.resolved_total"
	NATSMessagesPublished = MetricPrefix + ".nats.messages_published_total"
	SchedulerJobsTotal    = MetricPrefix + ".scheduler.jobs_total"
	SchedulerJobDuration  = MetricPrefix + ".scheduler.job_duration"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelStatus    = "status"
	LabelState     = "state"
	LabelJob       = "job"
	LabelResult    = "result"
)
