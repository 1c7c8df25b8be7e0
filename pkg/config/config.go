package config

import "time"

// AppConfig holds the full crawl configuration. Values come from an optional
// YAML file and are overridden by CLI flags before Validate runs.
type AppConfig struct {
	RootURL          string        `yaml:"root_url"`
	OutputDir        string        `yaml:"output_dir,omitempty"` // Empty: derived from the root host
	MaxPages         int           `yaml:"max_pages,omitempty"`  // 0 = unbounded
	ExcludePatterns  []string      `yaml:"exclude_patterns,omitempty"` // Regex, searched against normalized keys
	UserAgent        string        `yaml:"user_agent,omitempty"`
	NumWorkers       int           `yaml:"num_workers,omitempty"`
	MaxFetches       int           `yaml:"max_concurrent_fetches,omitempty"` // Cap on in-flight HTTP requests
	RequestTimeout   time.Duration `yaml:"request_timeout,omitempty"`
	DelayPerHost     time.Duration `yaml:"delay_per_host,omitempty"` // Politeness delay, 0 disables
	MaxPageSizeBytes int64         `yaml:"max_page_size_bytes,omitempty"`

	EnableOutputMapping bool   `yaml:"enable_output_mapping"`
	MappingFilename     string `yaml:"mapping_filename,omitempty"`
	EnableMetadataYAML  bool   `yaml:"enable_metadata_yaml"`
	MetadataFilename    string `yaml:"metadata_filename,omitempty"`

	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// Default creates an AppConfig with output artifacts enabled. Flag/file values
// are layered on top before Validate.
func Default() AppConfig {
	return AppConfig{
		EnableOutputMapping: true,
		EnableMetadataYAML:  true,
	}
}
