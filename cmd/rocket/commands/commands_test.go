package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rocketscience/rocketscience/pkg/spacex"
)

var sample = []spacex.Launch{
	{
		MissionName:   "Falcon-1",
		LaunchYear:    "2008",
		DateUnix:      1222643700,
		LaunchSuccess: true,
		Rocket:        spacex.Rocket{Name: "Falcon 1", Type: "Merlin C"},
	},
}

func TestRenderLaunches(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		if err := renderLaunches(&buf, sample, outputTable); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "Falcon-1") {
			t.Errorf("table lacks the mission:\n%s", buf.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := renderLaunches(&buf, sample, outputJSON); err != nil {
			t.Fatal(err)
		}
		var rows []launchRow
		if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 || rows[0].Rocket != "Falcon 1 / Merlin C" || rows[0].Date != "09/28/08 at 23:15" {
			t.Errorf("rows = %+v", rows)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := renderLaunches(&buf, sample, outputYAML); err != nil {
			t.Fatal(err)
		}
		var rows []launchRow
		if err := yaml.Unmarshal(buf.Bytes(), &rows); err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 || rows[0].Mission != "Falcon-1" || !rows[0].Success {
			t.Errorf("rows = %+v", rows)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if err := renderLaunches(&bytes.Buffer{}, sample, "xml"); err == nil {
			t.Error("renderLaunches(xml) succeeded, want error")
		}
	})
}

func TestToRowsDaysFromNow(t *testing.T) {
	now := time.Unix(sample[0].DateUnix, 0).Add(-48 * time.Hour)
	if got := toRows(sample, now)[0].DaysFromNow; got != 2 {
		t.Errorf("DaysFromNow = %d, want 2", got)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, verbose, jsonOutput = "", false, false

	var out bytes.Buffer
	cmd := newRootCommand("test", "none", "today")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rocket.yaml")

	if _, err := run(t, "config", "init", "--config", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := run(t, "config", "init", "--config", path); err == nil {
		t.Error("second config init succeeded without --force")
	}
	if _, err := run(t, "config", "init", "--config", path, "--force"); err != nil {
		t.Errorf("config init --force: %v", err)
	}

	out, err := run(t, "config", "validate", "--config", path)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "valid") {
		t.Errorf("validate output = %q", out)
	}

	out, err = run(t, "config", "show", "--config", path)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "base_url: https://api.spacexdata.com/v3") {
		t.Errorf("show output lacks the base url:\n%s", out)
	}
}

func TestDBCommands(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ROCKET_STORE_PATH", filepath.Join(dir, "cache.db"))
	backup := filepath.Join(dir, "backup.db")

	if _, err := run(t, "db", "migrate"); err != nil {
		t.Fatalf("db migrate: %v", err)
	}
	if _, err := run(t, "db", "backup", "--out", backup); err != nil {
		t.Fatalf("db backup: %v", err)
	}
	if _, err := run(t, "db", "backup", "--out", backup); err == nil {
		t.Error("backup over an existing file succeeded")
	}
	if _, err := run(t, "db", "restore", "--from", backup); err != nil {
		t.Fatalf("db restore: %v", err)
	}
}

func TestLaunchesCommandFallsBackToCache(t *testing.T) {
	var userAgent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent.Store(r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"mission_name":"FalconSat","launch_year":"2006","launch_date_unix":1143239400,
			 "rocket":{"rocket_name":"Falcon 1","rocket_type":"Merlin A"},"launch_success":false},
			{"mission_name":"RatSat","launch_year":"2008","launch_date_unix":1222643700,
			 "rocket":{"rocket_name":"Falcon 1","rocket_type":"Merlin C"},"launch_success":true}
		]`))
	}))
	t.Setenv("ROCKET_API_BASE_URL", srv.URL)
	t.Setenv("ROCKET_STORE_PATH", filepath.Join(t.TempDir(), "cache.db"))

	out, err := run(t, "launches", "--year", "2008", "--output", "json")
	if err != nil {
		t.Fatalf("launches: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"RatSat"`) || strings.Contains(out, `"FalconSat"`) {
		t.Errorf("filtered output:\n%s", out)
	}
	if ua, _ := userAgent.Load().(string); ua != "rocketscience/dev" {
		t.Errorf("User-Agent = %q", ua)
	}

	// Offline, the unfiltered snapshot saved above is listed after the warning.
	srv.Close()
	out, err = run(t, "launches", "--output", "json")
	if err != nil {
		t.Fatalf("offline launches: %v\n%s", err, out)
	}
	warning := strings.Index(out, "warning: No internet connection")
	listed := strings.Index(out, `"FalconSat"`)
	if warning < 0 || listed < warning || !strings.Contains(out, `"RatSat"`) {
		t.Errorf("offline output:\n%s", out)
	}
}
