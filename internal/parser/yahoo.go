package parser

import js "CandleKeeper/internal/jsonstream"

// ProviderYahoo identifies the Yahoo Finance v8 chart envelope.
const ProviderYahoo = "yahoo"

// Yahoo chart layout:
//
//	{"chart":{"result":[{
//	  "meta":{"symbol":"AAPL","dataGranularity":"1d","range":"3mo",...},
//	  "timestamp":[...],
//	  "indicators":{"quote":[{"open":[...],"close":[...],"low":[...],"high":[...],"volume":[...]}],
//	                "adjclose":[{"adjclose":[...]}]}}],
//	  "error":null}}
var (
	yahooResult = js.JoinPath("chart", "result", js.ArrayElem)
	yahooQuote  = js.JoinPath(yahooResult, "indicators", "quote", js.ArrayElem)
	yahooMeta   = js.JoinPath(yahooResult, "meta")
)

func yahooSchema() schema {
	quote := func(name string) string { return js.JoinPath(yahooQuote, name, js.ArrayElem) }
	return schema{
		numbers: map[string]field{
			js.JoinPath(yahooResult, "timestamp", js.ArrayElem): fieldTimestamp,
			quote("open"):   fieldOpen,
			quote("close"):  fieldClose,
			quote("low"):    fieldLow,
			quote("high"):   fieldHigh,
			quote("volume"): fieldVolume,
		},
		strings: map[string]label{
			js.JoinPath(yahooMeta, "symbol"):          labelSymbol,
			js.JoinPath(yahooMeta, "range"):           labelRange,
			js.JoinPath(yahooMeta, "dataGranularity"): labelInterval,
		},
	}
}

// YahooExtractor reads the Yahoo Finance chart envelope. Range and interval
// come from the document's meta block; the constructor values apply when the
// block omits them.
type YahooExtractor struct {
	extractor
}

// NewYahooExtractor creates a YahooExtractor.
func NewYahooExtractor(rng, interval string) *YahooExtractor {
	return &YahooExtractor{extractor: newExtractor(ProviderYahoo, yahooSchema(), rng, interval)}
}
