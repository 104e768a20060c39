package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string
	TrackerConfig     string

	// News generator configuration
	LLMProvider      string
	LLMAPIKey        string
	LLMAPIURL        string
	LLMModel         string
	GeneratorTimeout int

	// Query cache and rate limiting
	RedisURL       string
	CacheTTL       int
	FetchRateLimit int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
