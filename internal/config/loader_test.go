package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tvemc/raceline/internal/config"
)

func TestDefaults(t *testing.T) {
	Convey("Given a default config", t, func() {
		cfg := config.New()

		Convey("Then the service defaults are sane", func() {
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.EventTimezone, ShouldEqual, "America/Los_Angeles")
			So(cfg.FinishStationCode, ShouldEqual, "FINISH")
			So(cfg.QueueSize, ShouldEqual, 10_000)
			So(cfg.UndoWindowSeconds, ShouldEqual, 15)
			So(cfg.AdvanceRule, ShouldEqual, "IN_ONLY")
		})

		Convey("Then the course tables carry the fielded layout", func() {
			So(cfg.StationGroups["CORRAL_AUTO"], ShouldResemble, []string{"AS1", "AS8", "AS10"})
			So(cfg.StationGroups["KANAN_AUTO"], ShouldResemble, []string{"AS2", "AS7"})
			So(cfg.StationGroups["ZUMA_AUTO"], ShouldResemble, []string{"AS4", "AS6"})
			So(cfg.MinDwellMinutes["CORRAL_AUTO"]["50K"], ShouldEqual, 60)
			So(cfg.MinDwellMinutes["KANAN_AUTO"]["50M"], ShouldEqual, 90)
		})
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given only defaults", t, func() {
		cfg, err := config.Load(ctx)

		So(err, ShouldBeNil)
		So(cfg.Addr, ShouldEqual, ":9080")
	})

	Convey("Given environment overrides", t, func() {
		_ = os.Setenv("RACELINE_ADDR", ":8080")
		_ = os.Setenv("RACELINE_EVENT_CODE", "TEST-100-2026-0001")
		_ = os.Setenv("RACELINE_UNDO_WINDOW_SECONDS", "30")
		defer func() {
			_ = os.Unsetenv("RACELINE_ADDR")
			_ = os.Unsetenv("RACELINE_EVENT_CODE")
			_ = os.Unsetenv("RACELINE_UNDO_WINDOW_SECONDS")
		}()

		cfg, err := config.Load(ctx)

		Convey("Then env values win over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":8080")
			So(cfg.EventCode, ShouldEqual, "TEST-100-2026-0001")
			So(cfg.UndoWindowSeconds, ShouldEqual, 30)
		})
	})

	Convey("Given a YAML config file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "raceline.yaml")
		yaml := `
addr: ":7070"
event_code: "FILE-EVENT"
advance_rule: "IN_OUT"
station_groups:
  LOOP_AUTO: ["ST1", "ST2"]
min_dwell_minutes:
  LOOP_AUTO:
    50K: 45
`
		So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
		_ = os.Setenv(config.EnvConfigPath, path)
		defer func() { _ = os.Unsetenv(config.EnvConfigPath) }()

		cfg, err := config.Load(ctx)

		Convey("Then file values layer over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.EventCode, ShouldEqual, "FILE-EVENT")
			So(cfg.AdvanceRule, ShouldEqual, "IN_OUT")
			So(cfg.StationGroups["LOOP_AUTO"], ShouldResemble, []string{"ST1", "ST2"})
			So(cfg.MinDwellMinutes["LOOP_AUTO"]["50K"], ShouldEqual, 45)
		})
	})

	Convey("Given invalid settings", t, func() {
		Convey("When the timezone is unknown", func() {
			_ = os.Setenv("RACELINE_EVENT_TIMEZONE", "Mars/Olympus_Mons")
			defer func() { _ = os.Unsetenv("RACELINE_EVENT_TIMEZONE") }()

			_, err := config.Load(ctx)
			So(err, ShouldNotBeNil)
		})

		Convey("When the undo window is not positive", func() {
			_ = os.Setenv("RACELINE_UNDO_WINDOW_SECONDS", "0")
			defer func() { _ = os.Unsetenv("RACELINE_UNDO_WINDOW_SECONDS") }()

			_, err := config.Load(ctx)
			So(err, ShouldNotBeNil)
		})

		Convey("When the config file is missing", func() {
			_ = os.Setenv(config.EnvConfigPath, "/does/not/exist.yaml")
			defer func() { _ = os.Unsetenv(config.EnvConfigPath) }()

			_, err := config.Load(ctx)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestEventLocation(t *testing.T) {
	Convey("Given a config with a valid timezone", t, func() {
		cfg := config.New()
		loc := cfg.EventLocation()
		So(loc.String(), ShouldEqual, "America/Los_Angeles")
	})

	Convey("Given a config with a broken timezone", t, func() {
		cfg := config.New()
		cfg.EventTimezone = "Nowhere/Void"

		Convey("Then it falls back to UTC", func() {
			So(cfg.EventLocation().String(), ShouldEqual, "UTC")
		})
	})
}
