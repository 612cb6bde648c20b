package scoring

import "math"

// ModuleScore is the output of one evaluator. A non-nil HardStop forces the
// overall decision to DECLINED when the module is critical. Values are built
// once through scoreBuilder and never modified afterwards.
type ModuleScore struct {
	Module    Module                 `json:"module"`
	RawScore  float64                `json:"rawScore"`
	Notes     []string               `json:"notes"`
	Flags     []string               `json:"flags"`
	HardStop  *HardStop              `json:"hardStop,omitempty"`
	Breakdown map[string]interface{} `json:"breakdown,omitempty"`
}

func (s ModuleScore) Stopped() bool {
	return s.HardStop != nil
}

func (s ModuleScore) HasFlag(flag string) bool {
	for _, f := range s.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

type scoreBuilder struct {
	module    Module
	notes     []string
	flags     []string
	breakdown map[string]interface{}
}

func newScore(module Module) *scoreBuilder {
	return &scoreBuilder{module: module}
}

func (b *scoreBuilder) note(n string) *scoreBuilder {
	b.notes = append(b.notes, n)
	return b
}

func (b *scoreBuilder) flag(f string) *scoreBuilder {
	b.flags = append(b.flags, f)
	return b
}

func (b *scoreBuilder) detail(key string, v interface{}) *scoreBuilder {
	if b.breakdown == nil {
		b.breakdown = make(map[string]interface{})
	}
	b.breakdown[key] = v
	return b
}

func (b *scoreBuilder) build(raw float64) ModuleScore {
	s := ModuleScore{
		Module:   b.module,
		RawScore: clamp(raw, 0, 100),
		Notes:    append(make([]string, 0, len(b.notes)), b.notes...),
		Flags:    append(make([]string, 0, len(b.flags)), b.flags...),
	}
	if b.breakdown != nil {
		s.Breakdown = make(map[string]interface{}, len(b.breakdown))
		for k, v := range b.breakdown {
			s.Breakdown[k] = v
		}
	}
	return s
}

// ok finishes a graded score.
func (b *scoreBuilder) ok(raw float64) ModuleScore {
	return b.build(raw)
}

// stop finishes a hard stop; the raw score is always 0.
func (b *scoreBuilder) stop(reason string) ModuleScore {
	b.note(reason)
	s := b.build(0)
	s.HardStop = &HardStop{Module: b.module, Reason: reason}
	return s
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
