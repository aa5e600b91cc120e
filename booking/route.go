package booking

import (
	"fmt"
	"sort"
	"strings"
)

// cityCodes maps every served city to its short route code.
var cityCodes = map[string]string{
	"bandung": "bdg",
	"jakarta": "jkt",
	"ciamis":  "cms",
	"bogor":   "bgr",
	"bekasi":  "bks",
	"garut":   "grt",
}

// CityCode returns the route code of a city name. Lookup ignores case and
// surrounding whitespace.
func CityCode(city string) (string, error) {
	code, ok := cityCodes[strings.ToLower(strings.TrimSpace(city))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCity, city)
	}
	return code, nil
}

// RouteKey composes the route document key "{originCode}_{destCode}".
func RouteKey(from, to string) (string, error) {
	fromCode, err := CityCode(from)
	if err != nil {
		return "", err
	}
	toCode, err := CityCode(to)
	if err != nil {
		return "", err
	}
	return fromCode + "_" + toCode, nil
}

// Cities returns the served city names in alphabetical order.
func Cities() []string {
	out := make([]string, 0, len(cityCodes))
	for name := range cityCodes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
