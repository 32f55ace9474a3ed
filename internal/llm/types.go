package llm

import "context"

// ResponseFormat selects how the model is asked to shape its output.
type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json"
)

type Provider interface {
	// Complete takes a prompt and returns the model's completion. Safe for
	// concurrent use by multiple pipeline invocations.
	Complete(ctx context.Context, prompt string, opts ...Option) (*Response, error)
}

type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

type Option func(*Options)

type Options struct {
	Model       string
	System      string
	MaxTokens   int64
	Temperature float64
	Format      ResponseFormat
}

func WithModel(model string) Option {
	return func(o *Options) {
		if model != "" {
			o.Model = model
		}
	}
}

func WithSystem(system string) Option {
	return func(o *Options) { o.System = system }
}

func WithMaxTokens(n int64) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxTokens = n
		}
	}
}

func WithTemperature(t float64) Option {
	return func(o *Options) {
		if t != 0 {
			o.Temperature = t
		}
	}
}

func WithFormat(f ResponseFormat) Option {
	return func(o *Options) { o.Format = f }
}

type Response struct {
	Content string
	Usage   Usage
}
