package seam

import "go.uber.org/zap"

// Config holds injection configuration options
type Config struct {
	SkipDataScript bool   // Suppresses the embedded JSON payload script
	DataScriptID   string // id attribute of the payload script element
	Minify         bool   // Minifies the final document
	Logger         *zap.Logger
	Collector      *Collector // Optional shared metrics collector
}

// Option is a functional option for configuring injection
type Option func(*Config)

// WithSkipDataScript suppresses the embedded JSON payload script
func WithSkipDataScript() Option {
	return func(c *Config) {
		c.SkipDataScript = true
	}
}

// WithDataScriptID overrides the id of the embedded payload script
func WithDataScriptID(id string) Option {
	return func(c *Config) {
		c.DataScriptID = id
	}
}

// WithMinify minifies the injected document before returning it
func WithMinify() Option {
	return func(c *Config) {
		c.Minify = true
	}
}

// WithLogger sets a structured logger; the default discards everything
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithCollector shares a metrics collector across calls
func WithCollector(collector *Collector) Option {
	return func(c *Config) {
		c.Collector = collector
	}
}

func newConfig(opts ...Option) Config {
	config := Config{
		DataScriptID: DefaultDataScriptID,
		Logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.DataScriptID == "" {
		config.DataScriptID = DefaultDataScriptID
	}
	return config
}

// Inject renders template markup against a data object and returns the
// resulting document. Directives ride in HTML comments, so any template
// is also a valid static preview of itself. Inject never fails: missing
// paths render as absent values, malformed directives stay in the output
// as literal text, and non-directive bytes pass through untouched.
func Inject(template string, data map[string]any, opts ...Option) string {
	cfg := newConfig(opts...)
	cfg.Collector.IncrementInjection()

	nodes := parseTemplate(template)
	r := &renderer{
		data:    data,
		metrics: cfg.Collector,
		log:     cfg.Logger,
	}
	r.renderNodes(nodes)

	out := applySplices(r.out.String(), r.pending, cfg.Collector)
	if !cfg.SkipDataScript {
		out = appendDataScript(out, data, cfg.DataScriptID)
	}
	if cfg.Minify {
		out = minifyHTML(out)
	}
	cfg.Logger.Debug("Injected template",
		zap.Int("template_bytes", len(template)),
		zap.Int("output_bytes", len(out)),
		zap.Int("attr_splices", len(r.pending)))
	return out
}
