package scoring

import "time"

// Evaluator is implemented by every scoring module.
type Evaluator interface {
	Module() Module
	Evaluate(req *Request) ModuleScore
}

// DefaultEvaluators is the static module registry in evaluation order.
func DefaultEvaluators() []Evaluator {
	return []Evaluator{
		AgeEvaluator{},
		CityEvaluator{},
		IncomeEvaluator{},
		SPUEvaluator{},
		EAMVUEvaluator{},
		DBREvaluator{},
	}
}

// Engine runs the evaluators and the aggregator. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	evaluators []Evaluator
	aggregator Aggregator
	now        func() time.Time
}

type Option func(*Engine)

// WithClock sets the clock used when a request carries no evaluation date.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		evaluators: DefaultEvaluators(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now reads the engine clock.
func (e *Engine) Now() time.Time { return e.now() }

// Evaluate produces a decision for one application.
func (e *Engine) Evaluate(req *Request) *DecisionResult {
	var r Request
	if req != nil {
		r = *req
	}
	if r.AsOf.IsZero() {
		r.AsOf = e.now()
	}
	r.resolvedDBR, r.dbrResolved = ResolveDBR(&r), true

	scores := make(map[Module]ModuleScore, len(Modules))
	for _, ev := range e.evaluators {
		scores[ev.Module()] = ev.Evaluate(&r)
	}
	scores[ModuleApplication] = externalScore(ModuleApplication, r.CBS.ApplicationScore, r.CBS.ApplicationBreakdown)
	scores[ModuleBehavioral] = externalScore(ModuleBehavioral, r.CBS.BehavioralScore, r.CBS.BehavioralBreakdown)

	res := e.aggregator.Aggregate(r.Applicant.Relationship(), scores)
	res.DBR = r.resolvedDBR
	return res
}

func externalScore(m Module, score float64, breakdown map[string]interface{}) ModuleScore {
	b := newScore(m).note("externally supplied " + string(m) + " score")
	for k, v := range breakdown {
		b.detail(k, v)
	}
	return b.ok(score)
}
