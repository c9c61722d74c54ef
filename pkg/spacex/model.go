package spacex

import (
	"fmt"
	"time"
)

// Resource names identify the two synchronized data sets in logs, metrics
// and failures.
const (
	ResourceCompanyInfo = "company_info"
	ResourceLaunches    = "launches"
)

// CompanyInfo describes the company. Only one record exists.
type CompanyInfo struct {
	Name        string `json:"name"`
	Founder     string `json:"founder"`
	Founded     int    `json:"founded"`
	Employees   int    `json:"employees"`
	LaunchSites int    `json:"launch_sites"`
	Valuation   int64  `json:"valuation"`
}

// Description builds a one-sentence summary of the company.
func (c CompanyInfo) Description() string {
	return fmt.Sprintf("%s, was founded by %s in %d. "+
		"It has now %d employees, "+
		"%d launch sites, and is valued at USD %d",
		c.Name, c.Founder, c.Founded, c.Employees, c.LaunchSites, c.Valuation)
}

// Rocket identifies the vehicle used by a launch.
type Rocket struct {
	Name string `json:"rocket_name"`
	Type string `json:"rocket_type"`
}

// Links holds external references for a launch. Absent links are empty.
type Links struct {
	MissionPatch string `json:"mission_patch"`
	Wikipedia    string `json:"wikipedia"`
	Video        string `json:"video_link"`
}

// Launch is a single launch event, identified by its mission name.
type Launch struct {
	MissionName   string `json:"mission_name"`
	Upcoming      bool   `json:"upcoming"`
	LaunchYear    string `json:"launch_year"`
	DateUnix      int64  `json:"launch_date_unix"`
	Rocket        Rocket `json:"rocket"`
	LaunchSuccess bool   `json:"launch_success"`
	Links         Links  `json:"links"`
}

// dateAndTimeLayout renders as "MM/dd/yy at HH:mm".
const dateAndTimeLayout = "01/02/06 at 15:04"

// LaunchTime returns the launch date in UTC.
func (l Launch) LaunchTime() time.Time {
	return time.Unix(l.DateUnix, 0).UTC()
}

// DateAndTime formats the launch date, e.g. "03/24/06 at 22:30".
func (l Launch) DateAndTime() string {
	return l.LaunchTime().Format(dateAndTimeLayout)
}

// DaysFromNow returns the number of whole days between now and the launch.
// The result is positive for launches in the future and negative for past ones.
func (l Launch) DaysFromNow(now time.Time) int {
	return int(l.LaunchTime().Sub(now.UTC()).Hours() / 24)
}
