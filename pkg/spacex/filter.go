package spacex

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// FirstLaunchYear is the earliest year offered for filtering.
const FirstLaunchYear = 2006

var validate = validator.New(validator.WithRequiredStructEnabled())

// FilterCriteria selects and orders launches. It is supplied per query and
// never persisted.
type FilterCriteria struct {
	// Years is the set of selected launch years. Empty means no filtering.
	Years []string `json:"years" yaml:"years" mapstructure:"years" validate:"dive,required,numeric,len=4"`

	// Descending orders the result by launch year, newest first.
	Descending bool `json:"descending" yaml:"descending" mapstructure:"descending"`
}

// Validate checks that every selected year is a year between FirstLaunchYear
// and the current year.
func (c FilterCriteria) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid filter criteria: %w", err)
	}
	current := time.Now().Year()
	for _, y := range c.Years {
		year, _ := strconv.Atoi(y)
		if year < FirstLaunchYear || year > current {
			return fmt.Errorf("invalid filter criteria: year %s outside %d-%d", y, FirstLaunchYear, current)
		}
	}
	return nil
}

// Apply filters then sorts launches. The input slice is not modified.
func (c FilterCriteria) Apply(launches []Launch) ([]Launch, error) {
	filtered := Filter(launches, c.Years)
	if !c.Descending {
		return filtered, nil
	}
	return SortDescending(filtered)
}

// Filter keeps every launch when years is empty. Otherwise it keeps launches
// whose year is in years and whose launch succeeded. Success is not checked
// when no year is selected.
func Filter(launches []Launch, years []string) []Launch {
	out := make([]Launch, 0, len(launches))
	for _, l := range launches {
		if len(years) == 0 || (slices.Contains(years, l.LaunchYear) && l.LaunchSuccess) {
			out = append(out, l)
		}
	}
	return out
}

// SortDescending returns a copy of launches ordered by numeric launch year,
// newest first. Launches from the same year keep their relative order. A
// launch year that is not a number is an error.
func SortDescending(launches []Launch) ([]Launch, error) {
	years := make(map[string]int, len(launches))
	for _, l := range launches {
		if _, ok := years[l.LaunchYear]; ok {
			continue
		}
		y, err := strconv.Atoi(l.LaunchYear)
		if err != nil {
			return nil, fmt.Errorf("invalid launch year %q for mission %s: %w", l.LaunchYear, l.MissionName, err)
		}
		years[l.LaunchYear] = y
	}

	out := slices.Clone(launches)
	sort.SliceStable(out, func(i, j int) bool {
		return years[out[i].LaunchYear] > years[out[j].LaunchYear]
	})
	return out, nil
}
