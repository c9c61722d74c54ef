package stores

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Table identifies a persisted table for change notifications.
type Table string

const (
	TableCompanyInfo Table = "company_info"
	TableLaunches    Table = "launches"
)

// CompanyInfoEntityID is the primary key of the only company_info row.
const CompanyInfoEntityID = 1

// CompanyInfoEntity is the persisted company record.
type CompanyInfoEntity struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Founder     string `db:"founder"`
	Founded     int    `db:"founded"`
	Employees   int    `db:"employees"`
	LaunchSites int    `db:"launch_sites"`
	Valuation   int64  `db:"valuation"`
	UpdatedAt   int64  `db:"updated_at"` // unix seconds
}

// LaunchEntity is a persisted launch row. Links may be NULL.
type LaunchEntity struct {
	MissionName       string  `db:"mission_name"`
	Upcoming          bool    `db:"upcoming"`
	LaunchYear        string  `db:"launch_year"`
	DateUnix          int64   `db:"launch_date_unix"`
	LaunchSuccess     bool    `db:"launch_success"`
	RocketName        string  `db:"rocket_name"`
	RocketType        string  `db:"rocket_type"`
	MissionPatchImage *string `db:"mission_patch_image"`
	WikipediaLink     *string `db:"wikipedia_link"`
	VideoLink         *string `db:"video_link"`
}

// Store defines the interface for the persistence layer
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	HealthCheck(ctx context.Context) error

	// Company info
	SaveCompanyInfo(ctx context.Context, info *CompanyInfoEntity) error
	GetCompanyInfo(ctx context.Context) (*CompanyInfoEntity, error)

	// Launches
	ReplaceLaunches(ctx context.Context, launches []LaunchEntity) error
	ListLaunches(ctx context.Context) ([]LaunchEntity, error)

	// Subscribe returns a channel that receives a value after every committed
	// write to table, whichever connection or process made it. Notifications
	// coalesce: a slow reader sees at least one signal after the latest write.
	// cancel closes the channel.
	Subscribe(table Table) (ch <-chan struct{}, cancel func())

	// Maintenance
	Backup(ctx context.Context, path string) error
	Restore(ctx context.Context, path string) error
}
