package local

import (
	"github.com/rocketscience/rocketscience/pkg/spacex"
	"github.com/rocketscience/rocketscience/pkg/stores"
)

// CompanyInfoToEntity converts the domain value to its row.
func CompanyInfoToEntity(c spacex.CompanyInfo) stores.CompanyInfoEntity {
	return stores.CompanyInfoEntity{
		ID:          stores.CompanyInfoEntityID,
		Name:        c.Name,
		Founder:     c.Founder,
		Founded:     c.Founded,
		Employees:   c.Employees,
		LaunchSites: c.LaunchSites,
		Valuation:   c.Valuation,
	}
}

// CompanyInfoFromEntity converts a row to the domain value.
func CompanyInfoFromEntity(e stores.CompanyInfoEntity) spacex.CompanyInfo {
	return spacex.CompanyInfo{
		Name:        e.Name,
		Founder:     e.Founder,
		Founded:     e.Founded,
		Employees:   e.Employees,
		LaunchSites: e.LaunchSites,
		Valuation:   e.Valuation,
	}
}

// LaunchToEntity converts a launch to its row. Empty links are stored as
// empty strings, not NULL.
func LaunchToEntity(l spacex.Launch) stores.LaunchEntity {
	return stores.LaunchEntity{
		MissionName:       l.MissionName,
		Upcoming:          l.Upcoming,
		LaunchYear:        l.LaunchYear,
		DateUnix:          l.DateUnix,
		LaunchSuccess:     l.LaunchSuccess,
		RocketName:        l.Rocket.Name,
		RocketType:        l.Rocket.Type,
		MissionPatchImage: ptr(l.Links.MissionPatch),
		WikipediaLink:     ptr(l.Links.Wikipedia),
		VideoLink:         ptr(l.Links.Video),
	}
}

// LaunchFromEntity converts a row to a launch. NULL links become "".
func LaunchFromEntity(e stores.LaunchEntity) spacex.Launch {
	return spacex.Launch{
		MissionName:   e.MissionName,
		Upcoming:      e.Upcoming,
		LaunchYear:    e.LaunchYear,
		DateUnix:      e.DateUnix,
		LaunchSuccess: e.LaunchSuccess,
		Rocket: spacex.Rocket{
			Name: e.RocketName,
			Type: e.RocketType,
		},
		Links: spacex.Links{
			MissionPatch: deref(e.MissionPatchImage),
			Wikipedia:    deref(e.WikipediaLink),
			Video:        deref(e.VideoLink),
		},
	}
}

// LaunchesToEntities converts a launch list, keeping its order.
func LaunchesToEntities(launches []spacex.Launch) []stores.LaunchEntity {
	out := make([]stores.LaunchEntity, len(launches))
	for i, l := range launches {
		out[i] = LaunchToEntity(l)
	}
	return out
}

// LaunchesFromEntities converts rows to launches, keeping their order.
func LaunchesFromEntities(entities []stores.LaunchEntity) []spacex.Launch {
	out := make([]spacex.Launch, len(entities))
	for i, e := range entities {
		out[i] = LaunchFromEntity(e)
	}
	return out
}

func ptr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
