package config

// applyDefaults fills unset fields with their canonical defaults.
func applyDefaults(cfg *Config) {
	if cfg.Book.Title == "" {
		cfg.Book.Title = "Documentation"
	}
	if cfg.Book.Language == "" {
		cfg.Book.Language = "en"
	}
	if cfg.Book.Src == "" {
		cfg.Book.Src = "src"
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "book"
	}
	if cfg.Render.HighlightStyle == "" {
		cfg.Render.HighlightStyle = "github"
	}
	if cfg.Preview.Addr == "" {
		cfg.Preview.Addr = "localhost:3000"
	}
	if cfg.LinkCheck.Timeout == "" {
		cfg.LinkCheck.Timeout = "10s"
	}

	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
}
