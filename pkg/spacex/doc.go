// Package spacex defines the company and launch data model shared by the
// remote fetcher, the local store and the repository layer.
//
// The JSON struct tags on the model types are the snake_case wire contract of
// the SpaceX REST API:
//
//	CompanyInfo: name, founder, founded, employees, launch_sites, valuation
//	Launch:      mission_name, upcoming, launch_year, launch_date_unix,
//	             rocket.rocket_name, rocket.rocket_type, launch_success,
//	             links.mission_patch, links.wikipedia, links.video_link
//
// Link fields are nullable on the wire; an absent or null link decodes to the
// empty string.
//
// # Filtering
//
// FilterCriteria.Apply runs the launch list transform used by filtered
// queries: keep a launch when no year is selected, or when its year is
// selected and it succeeded; then, if requested, sort by numeric launch year
// in descending order.
package spacex
