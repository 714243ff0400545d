package utils

type contextKey string

// Context keys carried from the HTTP layer into flows for audit logging.
const (
	RequestIDKey  contextKey = "request_id"
	UserAgentKey  contextKey = "user_agent"
	IPAddressKey  contextKey = "ip_address"
	EndpointKey   contextKey = "endpoint"
	TimeoutKey    contextKey = "timeout"
	CancelFuncKey contextKey = "cancel_func"
)

// Sequence engine constants
const (
	// MaxGenerationAttempts bounds the allocator's collision retry loop.
	// Exhausting it signals data corruption or a pathological template and is
	// treated as fatal.
	MaxGenerationAttempts = 1000

	// SequencePadWidth is the minimum rendered width of sequence numbers.
	SequencePadWidth = 3

	// ReformatWorkerCount bounds the parallel writes of a reformat migration.
	ReformatWorkerCount = 8

	// CategoryCacheKeyPrefix namespaces category slug cache entries in Redis.
	CategoryCacheKeyPrefix = "category_slug"
)

// HTTP constants
const (
	// CORSMaxAge is how long browsers may cache preflight responses, in seconds.
	CORSMaxAge = 86400
)
