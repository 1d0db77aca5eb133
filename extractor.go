package sensorboard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jpalmerr/sensorboard/sensor"
)

// Extractor turns the node's page into sensor fields.
//
// Extractor must be a pure function: the same body always yields the same
// [sensor.Fields]. Fields that cannot be found hold [sensor.Placeholder]; a
// page without a recognisable status span yields [sensor.CategoryUnknown]
// with [sensor.NoStatusText].
//
// # Panic Safety
//
// Extractors are called within a panic recovery boundary. If an extractor
// panics, the tick is recorded as a failure whose reason carries a
// correlation ID, and the full stack trace is logged.
type Extractor func(body string) sensor.Fields

// PatternRules holds one regular expression per field.
//
// Temperature, Humidity and GasLevel must each capture the value in their
// first group. Status must capture the CSS class in its first group and the
// message text in its second.
type PatternRules struct {
	Temperature string
	Humidity    string
	GasLevel    string
	Status      string

	// Classes maps the captured status class to a category. Classes not in
	// the map are [sensor.CategoryUnknown].
	Classes map[string]sensor.Category
}

// DefaultRules match the page served by the ESP32 fire-alarm node.
var DefaultRules = PatternRules{
	Temperature: `<b>Температура:</b> ([\d.]+)`,
	Humidity:    `<b>Влажност:</b> ([\d.]+)`,
	GasLevel:    `<b>Газ/Дим \(MQ-2\):</b> (\d+)`,
	Status:      `<span class='(status-normal|status-warning|status-critical)'>(.*?)</span>`,
	Classes: map[string]sensor.Category{
		"status-normal":   sensor.CategoryNormal,
		"status-warning":  sensor.CategoryWarning,
		"status-critical": sensor.CategoryCritical,
	},
}

// lineBreaks strips line terminators so a span that wraps lines still
// matches as one line of text.
var lineBreaks = strings.NewReplacer("\r", "", "\n", "")

// PatternExtractor returns an [Extractor] that applies each rule
// independently to the body with its line terminators removed. A rule that
// does not match affects only its own field.
//
// Returns an error if any pattern is invalid or has too few capture groups.
//
// Example:
//
//	rules := sensorboard.DefaultRules
//	rules.Temperature = `Temp: ([\d.]+)`
//	extractor, err := sensorboard.PatternExtractor(rules)
func PatternExtractor(rules PatternRules) (Extractor, error) {
	temp, err := compileRule("temperature", rules.Temperature, 1)
	if err != nil {
		return nil, err
	}
	hum, err := compileRule("humidity", rules.Humidity, 1)
	if err != nil {
		return nil, err
	}
	gas, err := compileRule("gas level", rules.GasLevel, 1)
	if err != nil {
		return nil, err
	}
	status, err := compileRule("status", rules.Status, 2)
	if err != nil {
		return nil, err
	}

	classes := make(map[string]sensor.Category, len(rules.Classes))
	for k, v := range rules.Classes {
		classes[k] = v
	}

	return func(body string) sensor.Fields {
		body = lineBreaks.Replace(body)

		f := sensor.EmptyFields()
		f.Temperature = firstGroup(temp, body)
		f.Humidity = firstGroup(hum, body)
		f.GasLevel = firstGroup(gas, body)

		if m := status.FindStringSubmatch(body); m != nil {
			cat, ok := classes[m[1]]
			if !ok {
				cat = sensor.CategoryUnknown
			}
			f.Category = cat
			f.StatusText = m[2]
		}
		return f
	}, nil
}

// MustPatternExtractor is like [PatternExtractor] but panics if a rule is
// invalid.
//
// Use this for compile-time constant patterns where you want to fail fast.
func MustPatternExtractor(rules PatternRules) Extractor {
	extractor, err := PatternExtractor(rules)
	if err != nil {
		panic("sensorboard: invalid pattern rules: " + err.Error())
	}
	return extractor
}

// DefaultExtractor is the [Extractor] used when none is configured.
var DefaultExtractor = MustPatternExtractor(DefaultRules)

func compileRule(name, pattern string, groups int) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%s pattern is required", name)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid %s pattern: %w", name, err)
	}
	if re.NumSubexp() < groups {
		return nil, fmt.Errorf("%s pattern needs %d capture group(s), has %d", name, groups, re.NumSubexp())
	}
	return re, nil
}

func firstGroup(re *regexp.Regexp, body string) string {
	m := re.FindStringSubmatch(body)
	if m == nil {
		return sensor.Placeholder
	}
	return m[1]
}
