package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/asyncmetrics/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		DescribeTable("level parsing",
			func(level string, enabled, disabled slog.Level) {
				log := logger.New(level, false, "dev")

				Expect(log.Enabled(context.Background(), enabled)).To(BeTrue())
				Expect(log.Enabled(context.Background(), disabled)).To(BeFalse())
			},
			Entry("info", "info", slog.LevelInfo, slog.LevelDebug),
			Entry("debug", "debug", slog.LevelDebug, slog.LevelDebug-1),
			Entry("warn", "warn", slog.LevelWarn, slog.LevelInfo),
			Entry("error", "error", slog.LevelError, slog.LevelWarn),
			Entry("unknown defaults to info", "invalid", slog.LevelInfo, slog.LevelDebug),
			Entry("case insensitive", "WARN", slog.LevelWarn, slog.LevelInfo),
		)

		It("should write JSON in prod with the environment attribute", func() {
			var buf bytes.Buffer
			log := logger.NewWithWriter(&buf, "info", false, "prod")
			log.Info("started")

			var record map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &record)).To(Succeed())
			Expect(record).To(HaveKeyWithValue("msg", "started"))
			Expect(record).To(HaveKeyWithValue("environment", "prod"))
		})

		It("should write text outside prod", func() {
			var buf bytes.Buffer
			log := logger.NewWithWriter(&buf, "info", false, "dev")
			log.Info("started")

			Expect(buf.String()).To(ContainSubstring("msg=started"))
			Expect(buf.String()).To(ContainSubstring("environment=dev"))
		})
	})

	Describe("For", func() {
		It("should tag records with the component", func() {
			var buf bytes.Buffer
			log := logger.For(logger.NewWithWriter(&buf, "info", false, "dev"), "reporter")
			log.Info("tick")

			Expect(buf.String()).To(ContainSubstring("component=reporter"))
		})

		It("should fall back to the default logger", func() {
			Expect(logger.For(nil, "reporter")).NotTo(BeNil())
		})
	})

	It("should discard everything", func() {
		Expect(logger.Discard().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
	})
})
