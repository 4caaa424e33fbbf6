package model

import "time"

// Config holds the complete application configuration
type Config struct {
	News    NewsConfig    `yaml:"news" mapstructure:"news"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Queue   QueueConfig   `yaml:"queue" mapstructure:"queue"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
}

// NewsConfig configures the article source and the fetch cadence.
type NewsConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	// Queries is the fixed topic list; processed in order each cycle.
	Queries []string `yaml:"queries" mapstructure:"queries"`
	Lang    string   `yaml:"lang" mapstructure:"lang"`
	// MaxPerQuery caps articles requested per topic query.
	MaxPerQuery int `yaml:"max_per_query" mapstructure:"max_per_query"`
	// CutoffDate: articles published at or before it are ignored.
	CutoffDate time.Time `yaml:"cutoff_date" mapstructure:"cutoff_date"`
	// UpdateInterval is the automated refresh cadence in watch mode.
	UpdateInterval time.Duration `yaml:"update_interval" mapstructure:"update_interval"`
	// RequestsPerSecond throttles calls to the article source.
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ExtractConfig configures the inference endpoint used for fact extraction.
type ExtractConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
	// MaxTokens limits the reply length.
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// ConfidenceThreshold is the minimum extraction confidence (0-100)
	// for a result to become an incident.
	ConfidenceThreshold int `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
}

// QueueConfig carries the backoff constants for the extraction scheduler.
type QueueConfig struct {
	// RetryDelay is the initial inter-request delay; it doubles on each
	// throttled response up to MaxRetryDelay.
	RetryDelay    time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	MaxRetryDelay time.Duration `yaml:"max_retry_delay" mapstructure:"max_retry_delay"`
	// MaxRetries caps re-enqueues of a single throttled request.
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
	// MaxBatch is the number of requests admitted per scheduler run.
	MaxBatch int `yaml:"max_batch" mapstructure:"max_batch"`
}

// StoreConfig selects and configures the persistent document store.
type StoreConfig struct {
	// Backend is "file" or "mongo".
	Backend       string `yaml:"backend" mapstructure:"backend"`
	Dir           string `yaml:"dir" mapstructure:"dir"`
	MongoURI      string `yaml:"mongo_uri" mapstructure:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database" mapstructure:"mongo_database"`
}

// ServerConfig configures the HTTP API served in watch mode.
type ServerConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"`
}

// OutputConfig configures rendering and diagnostics.
type OutputConfig struct {
	// GeoJSONPath is where the map layer is written; empty disables it.
	GeoJSONPath string `yaml:"geojson_path" mapstructure:"geojson_path"`
	Verbose     bool   `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults. The query list and cutoff
// target the Israel-Iran conflict domain this tool tracks.
func DefaultConfig() *Config {
	return &Config{
		News: NewsConfig{
			Endpoint: "https://gnews.io/api/v4/search",
			Queries: []string{
				// Combined searches
				"israel iran conflict",
				"israel iran war",
				"israel iran attack",
				"israel iran missile",
				"israel iran drone",
				"israel iran strike",

				// Israel specific searches
				"israel military operation",
				"israel missile strike",
				"israel drone attack",
				"israel air strike",
				"israel retaliation",
				"israel bombing",

				// Iran specific searches
				"iran military operation",
				"iran missile strike",
				"iran drone attack",
				"iran air strike",
				"iran revolutionary guard attack",
				"iran retaliation",
				"iran bombing",

				// Military assets
				"missile launch israel iran",
				"drone attack israel iran",
				"air strike israel iran",
				"military base israel iran",
				"nuclear facility israel iran",

				// Specific locations
				"tel aviv attack",
				"jerusalem attack",
				"haifa attack",
				"dimona attack",
				"tehran attack",
				"isfahan attack",
				"natanz attack",
				"fordow attack",
				"bushehr attack",

				// Broader context
				"middle east conflict",
				"persian gulf tension",
				"regional conflict escalation",
			},
			Lang:              "en",
			MaxPerQuery:       10,
			CutoffDate:        time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC),
			UpdateInterval:    3 * time.Minute,
			RequestsPerSecond: 1,
			Timeout:           30 * time.Second,
		},
		Extract: ExtractConfig{
			Model:               "gpt-4o-mini",
			MaxTokens:           2000,
			Timeout:             30 * time.Second,
			ConfidenceThreshold: 85,
		},
		Queue: QueueConfig{
			RetryDelay:    10 * time.Second,
			MaxRetryDelay: 2 * time.Minute,
			MaxRetries:    2,
			MaxBatch:      5,
		},
		Store: StoreConfig{
			Backend:       "file",
			MongoDatabase: "iranisrael",
		},
		Server: ServerConfig{
			Listen: ":8080",
		},
		Output: OutputConfig{
			GeoJSONPath: "incidents.geojson",
		},
	}
}
