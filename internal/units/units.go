// Package units holds the canonical measurement-unit vocabulary.
//
// Upstream capability models declare units with vendor keywords (the DTDL
// semantic-unit names). The downstream store only understands its own
// canonical unit identifiers, rooted in the base unit library. This package
// is the fixed translation table between the two.
//
// Resolution is deliberately strict: a declared unit with no canonical
// mapping is a hard error for the whole transformation, never a silent
// skip. A silently dropped or mis-mapped unit would corrupt every sample
// recorded against the attribute.
package units

import "github.com/twinbridge/twinbridge-core/internal/model"

// BaseLibrary is the library root segment for canonical unit FQNs.
const BaseLibrary = "base_unit_library"

// Resolve maps a vendor unit keyword to the canonical unit FQN.
// The second return value is false when the keyword has no mapping.
func Resolve(vendorUnit string) (model.FQN, bool) {
	canonical, ok := vocabulary[vendorUnit]
	if !ok {
		return nil, false
	}
	return model.FQN{BaseLibrary, canonical}, true
}

// Known reports whether a vendor unit keyword has a canonical mapping.
func Known(vendorUnit string) bool {
	_, ok := vocabulary[vendorUnit]
	return ok
}

// Count returns the size of the vocabulary. Used by diagnostics.
func Count() int {
	return len(vocabulary)
}

// vocabulary maps vendor unit keywords to canonical unit identifiers.
var vocabulary = map[string]string{
	"acre":                        "acre",
	"ampere":                      "ampere",
	"astronomicalUnit":            "astronomical_unit",
	"bar":                         "bar",
	"bel":                         "bel",
	"bit":                         "bit",
	"bitPerSecond":                "bit_per_second",
	"byte":                        "byte",
	"bytePerSecond":               "byte_per_second",
	"candela":                     "candela",
	"candelaPerSquareMetre":       "candela_per_square_meter",
	"centimetre":                  "centimeter",
	"centimetrePerSecond":         "centimeter_per_second",
	"centimetrePerSecondSquared":  "centimeter_per_second_squared",
	"coulomb":                     "coulomb",
	"cubicCentimetre":             "cubic_centimeter",
	"cubicFoot":                   "cubic_foot",
	"cubicInch":                   "cubic_inch",
	"cubicMetre":                  "cubic_meter",
	"day":                         "day",
	"decibel":                     "decibel",
	"degreeCelsius":               "celsius",
	"degreeFahrenheit":            "fahrenheit",
	"degreeOfArc":                 "degree_unit_of_angle",
	"degreePerSecond":             "degree_per_second",
	"electronvolt":                "electronvolt",
	"exbibit":                     "exbibit",
	"exbibitPerSecond":            "exabit_per_second",
	"exbibyte":                    "exbibyte",
	"exbibytePerSecond":           "exbibyte_per_second",
	"farad":                       "farad",
	"fluidOunce":                  "fluid_ounce_us",
	"foot":                        "foot",
	"footcandle":                  "lumen_per_square_foot",
	"gallon":                      "us_gallon",
	"gForce":                      "standard_acceleration_of_free_fall",
	"gibibit":                     "gibibit",
	"gibibitPerSecond":            "gigabit_per_second",
	"gibibyte":                    "gibibyte",
	"gibibytePerSecond":           "gigabyte_per_second",
	"gigahertz":                   "gigahertz",
	"gigajoule":                   "gigajoule",
	"gigawatt":                    "gigawatt",
	"gram":                        "gram",
	"gramPerCubicMetre":           "gram_per_cubic_meter",
	"gramPerHour":                 "gram_per_hour",
	"gramPerSecond":               "gram_per_second",
	"hectare":                     "hectare",
	"henry":                       "henry",
	"hertz":                       "hertz",
	"horsepower":                  "horsepower",
	"hour":                        "hour",
	"inch":                        "inch",
	"inchesOfMercury":             "inch_of_mercury",
	"inchesOfWater":               "inch_of_water",
	"joule":                       "joule",
	"kelvin":                      "kelvin",
	"kibibit":                     "kibibit",
	"kibibitPerSecond":            "kilobit_per_second",
	"kibibyte":                    "kibibyte",
	"kibibytePerSecond":           "kilobyte_per_second",
	"kilogram":                    "kilogram",
	"kilogramPerCubicMetre":       "kilogram_per_cubic_meter",
	"kilogramPerHour":             "kilogram_per_hour",
	"kilogramPerSecond":           "kilogram_per_second",
	"kilohertz":                   "kilohertz",
	"kilojoule":                   "kilojoule",
	"kilometre":                   "kilometer",
	"kilometrePerHour":            "kilometer_per_hour",
	"kilometrePerSecond":          "kilometer_per_second",
	"kiloohm":                     "kiloohm",
	"kilopascal":                  "kilopascal",
	"kilovolt":                    "kilovolt",
	"kilowatt":                    "kilowatt",
	"kilowattHour":                "kilowatt_hour",
	"kilowattHourPerYear":         "kilowatt_hour_per_year",
	"knot":                        "knot",
	"litre":                       "liter",
	"litrePerHour":                "liter_per_hour",
	"litrePerSecond":              "liter_per_second",
	"lumen":                       "lumen",
	"lux":                         "lux",
	"maxwell":                     "maxwell",
	"mebibit":                     "mebibit",
	"mebibitPerSecond":            "megabit_per_second",
	"mebibyte":                    "mebibyte",
	"mebibytePerSecond":           "megabyte_per_second",
	"megaelectronvolt":            "megaelectronvolt",
	"megahertz":                   "megahertz",
	"megajoule":                   "megajoule",
	"megaohm":                     "megaohm",
	"megavolt":                    "megavolt",
	"megawatt":                    "megawatt",
	"metre":                       "meter",
	"metrePerHour":                "meter_per_hour",
	"metrePerSecond":              "meter_per_second",
	"metrePerSecondSquared":       "meter_per_second_squared",
	"microampere":                 "microampere",
	"microfarad":                  "microfarad",
	"microgram":                   "microgram",
	"microhenry":                  "microhenry",
	"micrometre":                  "micrometer",
	"microsecond":                 "microsecond",
	"microvolt":                   "microvolt",
	"microwatt":                   "microwatt",
	"mile":                        "mile",
	"milePerHour":                 "mile_per_hour_statute_mile",
	"milePerSecond":               "mile_per_second",
	"milliampere":                 "milliampere",
	"millibar":                    "millibar",
	"millifarad":                  "millifarad",
	"milligram":                   "milligram",
	"millihenry":                  "millihenry",
	"millilitre":                  "milliliter",
	"millilitrePerHour":           "milliliter_per_hour",
	"millilitrePerSecond":         "milliliter_per_second",
	"millimetre":                  "millimeter",
	"millimetresOfMercury":        "conventional_millimeter_of_mercury",
	"milliohm":                    "milliohm",
	"millisecond":                 "millisecond",
	"millivolt":                   "millivolt",
	"milliwatt":                   "milliwatt",
	"minute":                      "minute",
	"minuteOfArc":                 "minute_unit_of_angle",
	"nanofarad":                   "nanofarad",
	"nanometre":                   "nanometer",
	"nanosecond":                  "nanosecond",
	"nauticalMile":                "nautical_mile",
	"newton":                      "newton",
	"newtonMetre":                 "newton_meter",
	"ohm":                         "ohm",
	"ounce":                       "ounce_force",
	"pascal":                      "pascal",
	"picofarad":                   "picofarad",
	"pound":                       "pound_force",
	"poundPerSquareInch":          "pound_per_square_inch",
	"radian":                      "radian",
	"radianPerSecond":             "radian_per_second",
	"radianPerSecondSquared":      "radian_per_second_squared",
	"revolutionPerMinute":         "revolution_per_minute",
	"revolutionPerSecond":         "revolution_per_second",
	"second":                      "second",
	"secondOfArc":                 "second_unit_of_angle",
	"slug":                        "slug",
	"squareCentimetre":            "square_centimeter",
	"squareFoot":                  "square_foot",
	"squareInch":                  "square_inch",
	"squareKilometre":             "square_kilometer",
	"squareMetre":                 "square_meter",
	"squareMillimetre":            "square_millimeter",
	"tebibit":                     "tebibit",
	"tebibitPerSecond":            "terabit_per_second",
	"tebibyte":                    "tebibyte",
	"tebibytePerSecond":           "tebibyte_per_second",
	"tesla":                       "tesla",
	"ton":                         "ton_force_us_short",
	"tonne":                       "tonne",
	"turn":                        "revolution",
	"unity percent":               "percent",
	"volt":                        "volt",
	"watt":                        "watt",
	"weber":                       "weber",
	"year":                        "year",
	"yobibit":                     "yobibit",
	"yobibitPerSecond":            "yobibit_per_second",
	"yobibyte":                    "yobibyte",
	"yobibytePerSecond":           "yobibyte_per_second",
	"zebibit":                     "zebibit",
	"zebibitPerSecond":            "zebibit_per_second",
	"zebibyte":                    "zebibyte",
	"zebibytePerSecond":           "zebibyte_per_second",
}
