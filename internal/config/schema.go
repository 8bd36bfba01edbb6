package config

// Config holds leaf configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Cache  CacheCfg  `mapstructure:"cache" yaml:"cache"`
	Viewer ViewerCfg `mapstructure:"viewer" yaml:"viewer"`
	Render RenderCfg `mapstructure:"render" yaml:"render"`
	Server ServerCfg `mapstructure:"server" yaml:"server"`
}

// CacheCfg configures the rendered-page cache.
type CacheCfg struct {
	// BudgetBytes is the total memory budget for cached bitmaps.
	BudgetBytes int64 `mapstructure:"budget_bytes" yaml:"budget_bytes"`
}

// ViewerCfg configures viewer session behavior.
type ViewerCfg struct {
	// PreloadRadius is how many pages around the visible one to prerender.
	PreloadRadius int `mapstructure:"preload_radius" yaml:"preload_radius"`
	// PagePadding is the vertical gap (pixels) above and below each page.
	PagePadding float64 `mapstructure:"page_padding" yaml:"page_padding"`
	// DefaultScale is the zoom scale applied when a document is opened.
	DefaultScale float64 `mapstructure:"default_scale" yaml:"default_scale"`
}

// RenderCfg configures the background render worker pool.
type RenderCfg struct {
	// Workers is the number of render worker goroutines.
	// Zero means runtime.NumCPU().
	Workers int `mapstructure:"workers" yaml:"workers"`
	// QueueSize is the render task queue capacity.
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheCfg{
			BudgetBytes: 1 << 30, // 1 GiB
		},
		Viewer: ViewerCfg{
			PreloadRadius: 2,
			PagePadding:   10,
			DefaultScale:  1.0,
		},
		Render: RenderCfg{
			Workers:   0, // NumCPU
			QueueSize: 1024,
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8080",
		},
	}
}
