package stepfile

import (
	"regexp"
	"strings"
)

// Unit is the file's declared length unit plus the factor that converts
// from the kernel's internal linear unit to it. Kernels normalize STEP
// geometry to millimeters regardless of the file's original unit, so
// Scale converts mm to the display unit.
type Unit struct {
	Symbol string  `json:"length_unit"`
	Scale  float64 `json:"length_scale"`
}

// mmScale maps unit symbols to their mm -> unit conversion factor.
var mmScale = map[string]float64{
	"mm": 1.0,
	"cm": 0.1,
	"dm": 0.01,
	"m":  0.001,
	"km": 0.000001,
	"in": 1.0 / 25.4,
	"ft": 1.0 / 304.8,
	"yd": 1.0 / 914.4,
	"mi": 1.0 / 1609344.0,
}

// conversionUnits maps CONVERSION_BASED_UNIT names to unit symbols.
var conversionUnits = map[string]string{
	"INCH": "in",
	"FOOT": "ft",
	"YARD": "yd",
	"MILE": "mi",
}

// siPrefixes maps SI_UNIT length prefixes to unit symbols.
var siPrefixes = map[string]string{
	"MILLI": "mm",
	"CENTI": "cm",
	"DECI":  "dm",
	"KILO":  "km",
}

var (
	conversionPattern = regexp.MustCompile(`(?i)CONVERSION_BASED_UNIT\s*\(\s*'(\w+)'`)
	siPrefixPattern   = regexp.MustCompile(`(?i)SI_UNIT\s*\(\s*\.(\w+)\.\s*,\s*\.METRE\.\s*\)`)
	siBarePattern     = regexp.MustCompile(`(?i)SI_UNIT\s*\(\s*\$\s*,\s*\.METRE\.\s*\)`)
)

// DetectUnit extracts the declared length unit. Precedence, strictly:
// a conversion-based unit (it reflects the author's intended display
// unit), then an SI unit with a length prefix, then a bare SI meter,
// then the millimeter default. Unrecognized conversion-based unit names
// pass through as a lowercased label with scale 1.0.
func DetectUnit(content []byte) Unit {
	if m := conversionPattern.FindSubmatch(content); m != nil {
		name := strings.ToUpper(string(m[1]))
		symbol, ok := conversionUnits[name]
		if !ok {
			return Unit{Symbol: strings.ToLower(name), Scale: 1.0}
		}
		return Unit{Symbol: symbol, Scale: mmScale[symbol]}
	}

	if m := siPrefixPattern.FindSubmatch(content); m != nil {
		prefix := strings.ToUpper(string(m[1]))
		symbol, ok := siPrefixes[prefix]
		if !ok {
			symbol = "m"
		}
		return Unit{Symbol: symbol, Scale: mmScale[symbol]}
	}

	if siBarePattern.Match(content) {
		return Unit{Symbol: "m", Scale: mmScale["m"]}
	}

	return Unit{Symbol: "mm", Scale: 1.0}
}
