package preprocessing

import (
	"errors"
	"fmt"
	"runtime"
	"unicode/utf8"

	"github.com/alejandroruanova/preprocessing-service/internal/core/services/linguistic"
)

// Per-item input errors
var (
	ErrMalformedText = errors.New("text is not valid UTF-8")
	ErrTextTooLong   = errors.New("text exceeds the maximum allowed size")
)

// Result is the outcome of one pipeline invocation. A filtered text has an
// empty Text and Filtered set; it is a valid result, not an error.
type Result struct {
	Text     string `json:"text"`
	Filtered bool   `json:"filtered"`
}

// Pipeline orchestrates the normalization stages over a shared, read-only
// dictionary and linguistic normalizer
type Pipeline struct {
	dict         *Dictionary
	normalizer   linguistic.Normalizer
	maxTextBytes int
	workers      int
}

// PipelineOption customizes a Pipeline
type PipelineOption func(*Pipeline)

// WithMaxTextBytes rejects inputs larger than n bytes. 0 means unlimited.
func WithMaxTextBytes(n int) PipelineOption {
	return func(p *Pipeline) {
		p.maxTextBytes = n
	}
}

// WithWorkers bounds the number of batch items processed concurrently
func WithWorkers(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// NewPipeline creates a pipeline. The dictionary must already be loaded.
func NewPipeline(dict *Dictionary, normalizer linguistic.Normalizer, opts ...PipelineOption) (*Pipeline, error) {
	if dict == nil {
		return nil, fmt.Errorf("substitution dictionary is required")
	}
	if normalizer == nil {
		return nil, fmt.Errorf("linguistic normalizer is required")
	}

	p := &Pipeline{
		dict:       dict,
		normalizer: normalizer,
		workers:    runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Dictionary returns the substitution dictionary in use
func (p *Pipeline) Dictionary() *Dictionary {
	return p.dict
}

// Workers returns the batch concurrency limit
func (p *Pipeline) Workers() int {
	return p.workers
}

// Compile validates the options and fixes the ordered list of enabled steps
func (p *Pipeline) Compile(opts Options) (*Plan, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Plan{
		opts:         opts.Clone(),
		minLength:    opts.minLength(),
		maxTextBytes: p.maxTextBytes,
		steps:        buildSteps(opts, p.dict, p.normalizer),
	}, nil
}

// Normalize compiles opts and runs the plan on a single text
func (p *Pipeline) Normalize(text string, opts Options) (Result, error) {
	plan, err := p.Compile(opts)
	if err != nil {
		return Result{}, err
	}
	return plan.Run(text)
}

// Plan is a validated, immutable stage sequence. It is safe for concurrent use.
type Plan struct {
	opts         Options
	minLength    int
	maxTextBytes int
	steps        []namedStep
}

// Options returns a copy of the options the plan was compiled from
func (pl *Plan) Options() Options {
	return pl.opts.Clone()
}

// Steps returns the names of the stages the plan runs, in order
func (pl *Plan) Steps() []string {
	names := make([]string, 0, len(pl.steps)+1)
	if pl.minLength > 0 {
		names = append(names, StepMinLengthFilter)
	}
	for _, s := range pl.steps {
		names = append(names, s.name)
	}
	return names
}

// Run applies the plan to text. Only malformed or oversized input fails;
// stage logic itself is total.
func (pl *Plan) Run(text string) (Result, error) {
	if !utf8.ValidString(text) {
		return Result{}, ErrMalformedText
	}
	if pl.maxTextBytes > 0 && len(text) > pl.maxTextBytes {
		return Result{}, fmt.Errorf("%w: %d > %d bytes", ErrTextTooLong, len(text), pl.maxTextBytes)
	}

	// Evaluated on the original text, before any stage
	if pl.minLength > 0 && utf8.RuneCountInString(text) < pl.minLength {
		return Result{Filtered: true}, nil
	}

	for _, s := range pl.steps {
		text = s.apply(text)
	}

	return Result{Text: text}, nil
}
