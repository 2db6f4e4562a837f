package logger_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tvemc/raceline/pkg/logger"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When getting the global instance", func() {
			l := logger.Get()
			So(l, ShouldNotBeNil)

			Convey("Then logging at every level does not panic", func() {
				ctx := context.Background()
				So(func() {
					l.Debug(ctx, "debug message", logger.String("k", "v"))
					l.Info(ctx, "info message", logger.Int("bib", 101))
					l.Warn(ctx, "warn message", logger.Float64("miles", 31.0))
					l.Error(ctx, "error message", logger.Error(errors.New("boom")))
				}, ShouldNotPanic)
			})
		})

		Convey("When deriving a named logger", func() {
			named := logger.Named("worker")
			So(named, ShouldNotBeNil)
			So(func() {
				named.Info(context.Background(), "named message", logger.Any("payload", map[string]int{"a": 1}))
			}, ShouldNotPanic)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings from configuration", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When the string is recognized", func() {
			So(logger.SetLevelString("debug"), ShouldBeNil)
			So(logger.SetLevelString("info"), ShouldBeNil)
			So(logger.SetLevelString("warn"), ShouldBeNil)
			So(logger.SetLevelString("warning"), ShouldBeNil)
			So(logger.SetLevelString("ERROR"), ShouldBeNil)
			So(logger.SetLevelString(""), ShouldBeNil)
		})

		Convey("When the string is unknown", func() {
			So(logger.SetLevelString("loud"), ShouldNotBeNil)
		})

		Convey("When setting a level directly", func() {
			So(func() { logger.SetLevel(slog.LevelInfo) }, ShouldNotPanic)
		})
	})
}

func TestFieldConstructors(t *testing.T) {
	Convey("Given the field constructors", t, func() {
		So(logger.String("k", "v").Key, ShouldEqual, "k")
		So(logger.Int("n", 3).Value, ShouldEqual, 3)
		So(logger.Float64("f", 1.5).Value, ShouldEqual, 1.5)
		So(logger.Error(errors.New("x")).Key, ShouldEqual, "error")
		So(logger.Any("a", nil).Key, ShouldEqual, "a")
	})
}
