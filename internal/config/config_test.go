package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/playoffdraft/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.RequestTimeout, convey.ShouldEqual, 15*time.Second)
			convey.So(cfg.DatabaseURL, convey.ShouldBeEmpty)
			convey.So(cfg.TotalSlots, convey.ShouldEqual, 6)
			convey.So(cfg.DefaultBudget, convey.ShouldEqual, 200)
			convey.So(cfg.BrokerBuffer, convey.ShouldEqual, 256)
			convey.So(cfg.RecalcBatchSize, convey.ShouldEqual, 50)
			convey.So(cfg.RecalcSchedule, convey.ShouldEqual, "@every 10m")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New(context.Background())

		cases := map[string]func(c *config.Config){
			"unknown log level":   func(c *config.Config) { c.LogLevel = "chatty" },
			"empty addr":          func(c *config.Config) { c.Addr = " " },
			"zero slots":          func(c *config.Config) { c.TotalSlots = 0 },
			"negative budget":     func(c *config.Config) { c.DefaultBudget = -1 },
			"zero broker buffer":  func(c *config.Config) { c.BrokerBuffer = 0 },
			"zero batch":          func(c *config.Config) { c.RecalcBatchSize = 0 },
			"negative workers":    func(c *config.Config) { c.RecalcWorkers = -2 },
			"malformed schedule":  func(c *config.Config) { c.RecalcSchedule = "every tuesday" },
			"zero request budget": func(c *config.Config) { c.RequestTimeout = 0 },
		}
		for name, mutate := range cases {
			convey.Convey("When it has "+name, func() {
				mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}

		convey.Convey("When the sweep is disabled", func() {
			cfg.RecalcSchedule = ""
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
