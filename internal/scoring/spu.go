package scoring

import "strings"

// SPUEvaluator screens the blacklist, 30k card list and negative list.
// Any hit is a hard stop.
type SPUEvaluator struct{}

func (SPUEvaluator) Module() Module { return ModuleSPU }

func (SPUEvaluator) Evaluate(req *Request) ModuleScore {
	b := newScore(ModuleSPU)
	a := &req.Applicant

	checks := []struct {
		set  interface{}
		flag string
		list string
	}{
		{a.Blacklisted, FlagBlacklist, "blacklist"},
		{a.CreditCard30kList, FlagCreditCard30k, "credit card 30k list"},
		{a.NegativeList, FlagNegativeList, "negative list"},
	}

	var hits []string
	for _, c := range checks {
		if ParseBool(c.set) {
			b.flag(c.flag)
			hits = append(hits, c.list)
		}
	}
	if len(hits) > 0 {
		return b.stop("SPU hit: " + strings.Join(hits, ", "))
	}
	return b.note("no SPU list hits").ok(100)
}
