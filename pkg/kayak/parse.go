package kayak

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// fare is one itinerary extracted from a results page.
type fare struct {
	Price          float64
	Company        string
	DurationOut    string
	DurationReturn string

	durOut time.Duration
	durRet time.Duration
}

var (
	// Result prices appear both in the legacy js-price spans and in the
	// current price-text containers.
	priceRe = regexp.MustCompile(`(?i)class="[^"]*(?:js-price|price-text)[^"]*"[^>]*>[^0-9<]*([\d,]+)`)

	// Leg durations render as "7h 35m".
	durationRe = regexp.MustCompile(`>\s*(\d{1,2})h\s*(\d{1,3})m\s*<`)

	// Carrier names sit in operator/carrier labelled nodes.
	companyRe = regexp.MustCompile(`(?i)class="[^"]*(?:operator|carrier)[^"]*"[^>]*>\s*([^<]+?)\s*<`)
)

// parseResults pulls itineraries out of raw page HTML. Kayak renders each
// result card as two leg durations and a carrier label followed by the
// price, so each price is paired with the nearest preceding matches.
func parseResults(html string) []fare {
	prices := priceRe.FindAllStringSubmatchIndex(html, -1)
	if len(prices) == 0 {
		return nil
	}
	durations := durationRe.FindAllStringSubmatchIndex(html, -1)
	companies := companyRe.FindAllStringSubmatchIndex(html, -1)

	var fares []fare
	for _, pm := range prices {
		price, err := strconv.ParseFloat(strings.ReplaceAll(html[pm[2]:pm[3]], ",", ""), 64)
		if err != nil || price <= 0 {
			continue
		}

		f := fare{Price: price}

		var legs []time.Duration
		var legTexts []string
		for _, dm := range durations {
			if dm[0] >= pm[0] {
				break
			}
			h, _ := strconv.Atoi(html[dm[2]:dm[3]])
			m, _ := strconv.Atoi(html[dm[4]:dm[5]])
			legs = append(legs, time.Duration(h)*time.Hour+time.Duration(m)*time.Minute)
			legTexts = append(legTexts, fmt.Sprintf("%dh %02dm", h, m))
		}
		if n := len(legs); n >= 2 {
			f.durOut, f.durRet = legs[n-2], legs[n-1]
			f.DurationOut, f.DurationReturn = legTexts[n-2], legTexts[n-1]
		} else if n == 1 {
			f.durOut = legs[0]
			f.DurationOut = legTexts[0]
		}

		for _, cm := range companies {
			if cm[0] >= pm[0] {
				break
			}
			f.Company = strings.TrimSpace(html[cm[2]:cm[3]])
		}

		fares = append(fares, f)
	}
	return fares
}

// cheapestEligible returns the lowest-priced fare whose legs both fit
// within maxDur. A zero maxDur disables the constraint, as does a fare
// whose durations could not be parsed.
func cheapestEligible(fares []fare, maxDur time.Duration) (fare, bool) {
	var best fare
	found := false
	for _, f := range fares {
		if maxDur > 0 {
			if f.durOut > maxDur || f.durRet > maxDur {
				continue
			}
		}
		if !found || f.Price < best.Price {
			best, found = f, true
		}
	}
	return best, found
}
