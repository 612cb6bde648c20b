package scoring

import (
	"fmt"
	"strings"
)

const (
	annexurePenalty    = -30
	fullCoverageBoth   = 40
	fullCoverageEither = 20
)

// annexureA is the fixed list of high-risk localities. Matching is a
// lower-case substring search over every address line.
var annexureA = []string{
	"lyari",
	"orangi town",
	"baldia town",
	"sohrab goth",
	"kati pahari",
	"banaras chowk",
	"pirabad",
	"qasba colony",
	"manghopir",
	"mochko",
	"ittehad town",
	"machar colony",
	"ibrahim hyderi",
	"rehri goth",
	"lea market",
	"kalakot",
	"chakiwara",
	"shershah",
	"mauripur",
	"hawkes bay village",
	"gulbai",
	"sultanabad",
	"bihar colony",
	"jahanabad",
	"frontier colony",
	"mominabad",
	"gulshan-e-bihar",
	"khuda ki basti",
	"surjani town",
	"gadap town",
	"bin qasim goth",
	"landhi muzaffarabad",
	"quaidabad",
	"shah latif town",
	"razzakabad",
	"kemari jackson",
	"mubarak village",
	"baba island",
	"shams pir",
	"old golimar",
	"pak colony",
	"rexer lane",
	"ranchore line",
	"garden east dhobi ghat",
	"kharadar lane",
	"chanesar goth",
	"mehmoodabad no. 6",
	"azam basti",
	"kausar niazi colony",
	"musa colony",
	"bhatti colony",
	"rangers chowk korangi",
	"jungle shah",
	"peer colony",
	"shadman goth",
	"ghaziabad orangi",
	"hijrat colony",
	"sikandarabad",
	"zia colony",
	"ali akbar shah goth",
}

// fullCoverageCities are served by the complete branch and courier network.
var fullCoverageCities = map[string]bool{
	"karachi":    true,
	"lahore":     true,
	"islamabad":  true,
	"rawalpindi": true,
	"faisalabad": true,
}

var clusterBonus = map[string]float64{
	"FEDERAL": 30,
	"CENTRAL": 25,
	"SOUTH":   20,
	"NORTH":   15,
	"EAST":    10,
	"WEST":    5,
}

// CityEvaluator scores address risk and service coverage.
type CityEvaluator struct{}

func (CityEvaluator) Module() Module { return ModuleCity }

func (CityEvaluator) Evaluate(req *Request) ModuleScore {
	b := newScore(ModuleCity)
	a := &req.Applicant
	var total float64

	if area, hit := matchAnnexureA(a.CurrentAddress, a.OfficeAddress); hit {
		total += annexurePenalty
		b.flag(FlagAnnexureA).note(fmt.Sprintf("address matches Annexure A locality %q (%d)", area, annexurePenalty))
	}

	current := fullCoverageCities[normalizeCity(a.CurrentAddress.City)]
	office := fullCoverageCities[normalizeCity(a.OfficeAddress.City)]
	switch {
	case current && office:
		total += fullCoverageBoth
		b.note(fmt.Sprintf("current and office cities in full coverage (+%d)", fullCoverageBoth))
	case current || office:
		total += fullCoverageEither
		b.note(fmt.Sprintf("one city in full coverage (+%d)", fullCoverageEither))
	default:
		b.note("no city in full coverage (+0)")
	}

	cluster := strings.ToUpper(strings.TrimSpace(a.Cluster))
	if bonus, ok := clusterBonus[cluster]; ok {
		total += bonus
		b.note(fmt.Sprintf("cluster %s (+%.0f)", cluster, bonus))
	} else {
		b.note("cluster not recognised (+0)")
	}

	return b.detail("rawTotal", total).ok(total)
}

func matchAnnexureA(addrs ...Address) (string, bool) {
	var sb strings.Builder
	for _, addr := range addrs {
		for _, line := range addr.lines() {
			if line == "" {
				continue
			}
			sb.WriteString(strings.ToLower(line))
			sb.WriteByte(' ')
		}
	}
	haystack := sb.String()
	for _, area := range annexureA {
		if strings.Contains(haystack, area) {
			return area, true
		}
	}
	return "", false
}

func normalizeCity(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
