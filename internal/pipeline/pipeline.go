package pipeline

import (
	"github.com/funvibe/morf/internal/config"
	"github.com/funvibe/morf/internal/evaluator"
	"github.com/funvibe/morf/internal/session"
)

// Processor is one stage of a check run.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx *PipelineContext) *PipelineContext

func (f ProcessorFunc) Process(ctx *PipelineContext) *PipelineContext { return f(ctx) }

// PipelineContext carries the state of a check run between stages.
type PipelineContext struct {
	FilePath string
	Source   []byte

	// Effect receives effects raised by invoke queries.
	Effect evaluator.EffectHandler

	Session  *config.Session
	Env      *session.Env
	Verdicts []session.Verdict

	Errors []error
}

func NewPipelineContext(path string, source []byte) *PipelineContext {
	return &PipelineContext{FilePath: path, Source: source}
}

// Failed reports whether a stage failed or a query did not pass.
func (ctx *PipelineContext) Failed() bool {
	return len(ctx.Errors) > 0 || session.Failed(ctx.Verdicts) > 0
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. A stage that needs the output of a failed
// stage passes the context through unchanged.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}

// Check returns the standard load, build and query pipeline.
func Check() *Pipeline {
	return New(ParseProcessor{}, BuildProcessor{}, QueryProcessor{})
}

// ParseProcessor parses and validates the session source.
type ParseProcessor struct{}

func (ParseProcessor) Process(ctx *PipelineContext) *PipelineContext {
	s, err := config.ParseSession(ctx.Source, ctx.FilePath)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Session = s
	return ctx
}

// BuildProcessor interns the declared types.
type BuildProcessor struct{}

func (BuildProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Session == nil {
		return ctx
	}
	env, err := session.Build(ctx.Session, ctx.Effect)
	if err != nil {
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}
	ctx.Env = env
	return ctx
}

// QueryProcessor runs the queries.
type QueryProcessor struct{}

func (QueryProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Env == nil {
		return ctx
	}
	ctx.Verdicts = ctx.Env.Run(ctx.Session)
	return ctx
}
