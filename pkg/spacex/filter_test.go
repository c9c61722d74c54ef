package spacex

import (
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func launch(name, year string, success bool) Launch {
	return Launch{
		MissionName:   name,
		LaunchYear:    year,
		LaunchSuccess: success,
		Rocket:        Rocket{Name: "Falcon 9", Type: "FT"},
	}
}

func missionNames(launches []Launch) []string {
	names := make([]string, 0, len(launches))
	for _, l := range launches {
		names = append(names, l.MissionName)
	}
	return names
}

func TestFilterNoYearsKeepsEverything(t *testing.T) {
	input := []Launch{
		launch("FalconSat", "2006", false),
		launch("DemoSat", "2007", false),
		launch("RatSat", "2008", true),
	}

	got, err := FilterCriteria{}.Apply(input)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if diff := cmp.Diff(input, got); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterSelectedYearsRequireSuccess(t *testing.T) {
	input := []Launch{
		launch("A", "2020", true),
		launch("B", "2020", false),
		launch("C", "2019", true),
		launch("D", "2020", true),
	}

	got, err := FilterCriteria{Years: []string{"2020"}}.Apply(input)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if diff := cmp.Diff([]string{"A", "D"}, missionNames(got)); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterAndSortScenario(t *testing.T) {
	input := []Launch{
		launch("Falcon-1", "2008", true),
		launch("Falcon-9", "2015", false),
	}

	got, err := FilterCriteria{Years: []string{"2008", "2015"}, Descending: true}.Apply(input)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Falcon-1"}, missionNames(got)); diff != "" {
		t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
	}
}

func TestSortDescending(t *testing.T) {
	input := []Launch{
		launch("a", "2010", true),
		launch("b", "2018", true),
		launch("c", "2006", false),
		launch("d", "2018", false),
		launch("e", "2012", true),
	}

	sorted, err := SortDescending(input)
	if err != nil {
		t.Fatalf("SortDescending() error = %v", err)
	}

	for i := 1; i < len(sorted); i++ {
		prev, _ := strconv.Atoi(sorted[i-1].LaunchYear)
		cur, _ := strconv.Atoi(sorted[i].LaunchYear)
		if cur > prev {
			t.Fatalf("sequence is not non-increasing at %d: %v", i, missionNames(sorted))
		}
	}
	if diff := cmp.Diff([]string{"b", "d", "e", "a", "c"}, missionNames(sorted)); diff != "" {
		t.Errorf("SortDescending() mismatch (-want +got):\n%s", diff)
	}

	again, err := SortDescending(sorted)
	if err != nil {
		t.Fatalf("SortDescending() second pass error = %v", err)
	}
	if diff := cmp.Diff(sorted, again); diff != "" {
		t.Errorf("sort is not idempotent (-first +second):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e"}, missionNames(input)); diff != "" {
		t.Errorf("input was modified (-want +got):\n%s", diff)
	}
}

func TestSortDescendingInvalidYear(t *testing.T) {
	_, err := SortDescending([]Launch{launch("a", "2010", true), launch("b", "twenty", true)})
	if err == nil {
		t.Fatal("expected error for non-numeric launch year")
	}

	// Without descending order the year is never parsed.
	got, err := FilterCriteria{}.Apply([]Launch{launch("b", "twenty", true)})
	if err != nil || len(got) != 1 {
		t.Errorf("Apply() = %v, %v", got, err)
	}
}

func TestFilterCriteriaValidate(t *testing.T) {
	next := strconv.Itoa(time.Now().Year() + 1)

	tests := []struct {
		name    string
		years   []string
		wantErr bool
	}{
		{name: "empty", years: nil},
		{name: "valid years", years: []string{"2006", "2015"}},
		{name: "before first launch", years: []string{"2005"}, wantErr: true},
		{name: "future year", years: []string{next}, wantErr: true},
		{name: "not numeric", years: []string{"20x0"}, wantErr: true},
		{name: "wrong length", years: []string{"215"}, wantErr: true},
		{name: "empty entry", years: []string{""}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FilterCriteria{Years: tt.years}.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
