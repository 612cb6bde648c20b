package scoring

// EAMVUEvaluator checks the asset/address verification submission.
type EAMVUEvaluator struct{}

func (EAMVUEvaluator) Module() Module { return ModuleEAMVU }

func (EAMVUEvaluator) Evaluate(req *Request) ModuleScore {
	b := newScore(ModuleEAMVU)
	if ParseBool(req.Applicant.EAMVUSubmitted) {
		return b.note("EAMVU verification submitted").ok(100)
	}
	return b.note("EAMVU verification not submitted").ok(0)
}
