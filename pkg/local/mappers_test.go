package local

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rocketscience/rocketscience/pkg/spacex"
	"github.com/rocketscience/rocketscience/pkg/stores"
)

func TestLaunchFromEntityNullLinks(t *testing.T) {
	patch := "https://example.com/patch.png"
	tests := []struct {
		name   string
		entity stores.LaunchEntity
		want   spacex.Links
	}{
		{
			name:   "all null",
			entity: stores.LaunchEntity{MissionName: "a"},
			want:   spacex.Links{},
		},
		{
			name:   "patch only",
			entity: stores.LaunchEntity{MissionName: "b", MissionPatchImage: &patch},
			want:   spacex.Links{MissionPatch: patch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LaunchFromEntity(tt.entity)
			if diff := cmp.Diff(tt.want, got.Links); diff != "" {
				t.Errorf("links mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLaunchToEntityStoresEmptyLinks(t *testing.T) {
	e := LaunchToEntity(spacex.Launch{
		MissionName: "RatSat",
		Rocket:      spacex.Rocket{Name: "Falcon 1", Type: "Merlin C"},
		Links:       spacex.Links{Video: "https://youtu.be/x"},
	})

	for name, link := range map[string]*string{
		"mission_patch_image": e.MissionPatchImage,
		"wikipedia_link":      e.WikipediaLink,
	} {
		if link == nil || *link != "" {
			t.Errorf("%s = %v, want non-nil empty string", name, link)
		}
	}
	if e.VideoLink == nil || *e.VideoLink != "https://youtu.be/x" {
		t.Errorf("video_link = %v", e.VideoLink)
	}
	if e.RocketName != "Falcon 1" || e.RocketType != "Merlin C" {
		t.Errorf("rocket not flattened: %+v", e)
	}
}

func TestLaunchEntityRoundTrip(t *testing.T) {
	patch, wiki, empty := "https://example.com/patch.png", "https://en.wikipedia.org/wiki/RatSat", ""
	tests := []struct {
		name   string
		entity stores.LaunchEntity
	}{
		{
			name: "all links set",
			entity: stores.LaunchEntity{
				MissionName: "RatSat", LaunchYear: "2008", DateUnix: 1222643700, LaunchSuccess: true,
				RocketName: "Falcon 1", RocketType: "Merlin C",
				MissionPatchImage: &patch, WikipediaLink: &wiki, VideoLink: &empty,
			},
		},
		{
			name: "stored empty strings",
			entity: stores.LaunchEntity{
				MissionName: "FalconSat", Upcoming: true,
				MissionPatchImage: &empty, WikipediaLink: &empty, VideoLink: &empty,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LaunchToEntity(LaunchFromEntity(tt.entity))
			if diff := cmp.Diff(tt.entity, got); diff != "" {
				t.Errorf("entity changed (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMappersPreserveValues(t *testing.T) {
	if got := CompanyInfoFromEntity(CompanyInfoToEntity(testCompany)); got != testCompany {
		t.Errorf("company info changed: %+v", got)
	}
	if diff := cmp.Diff(testLaunches, LaunchesFromEntities(LaunchesToEntities(testLaunches))); diff != "" {
		t.Errorf("launches changed (-want +got):\n%s", diff)
	}
	if got := LaunchesFromEntities(nil); got == nil || len(got) != 0 {
		t.Errorf("LaunchesFromEntities(nil) = %#v, want empty slice", got)
	}
}
