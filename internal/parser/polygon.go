package parser

import js "CandleKeeper/internal/jsonstream"

// ProviderPolygon identifies the Polygon.io aggregates envelope.
const ProviderPolygon = "polygon"

func polygonSchema() schema {
	result := func(name string) string { return js.JoinPath("results", js.ArrayElem, name) }
	return schema{
		numbers: map[string]field{
			result("t"): fieldTimestamp,
			result("o"): fieldOpen,
			result("c"): fieldClose,
			result("l"): fieldLow,
			result("h"): fieldHigh,
			result("v"): fieldVolume,
		},
		strings: map[string]label{
			"ticker": labelSymbol,
		},
	}
}

// PolygonExtractor reads the Polygon.io /v2/aggs envelope:
//
//	{"ticker":"AAPL","status":"OK","results":[{"t":1700000000000,"o":1,"c":1,"l":1,"h":1,"v":100,"vw":1,"n":3}]}
//
// The envelope carries no range or interval, so the labels are the ones the
// data was requested with. Timestamps stay in milliseconds as delivered.
type PolygonExtractor struct {
	extractor
}

// NewPolygonExtractor creates a PolygonExtractor for data requested with rng and interval.
func NewPolygonExtractor(rng, interval string) *PolygonExtractor {
	return &PolygonExtractor{extractor: newExtractor(ProviderPolygon, polygonSchema(), rng, interval)}
}
