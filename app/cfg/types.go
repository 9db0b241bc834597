package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	AssetsFile        string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Script generation (DeepSeek)
	DeepSeekAPIKey  string
	DeepSeekBaseURL string
	DeepSeekModel   string

	// Speech synthesis (MiniMax)
	MiniMaxAPIKey  string
	MiniMaxBaseURL string
	DefaultVoiceID string
	AudioDir       string

	// Generation behavior
	GenerationTimeout int
	FetchTimeout      int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
