package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/papercomputeco/pearl/pkg/logger"
)

func parseJSONLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	ExpectWithOffset(1, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("creates a default console logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Info("hello", zap.String("key", "value"))

			output := buf.String()
			Expect(output).To(ContainSubstring("hello"))
			Expect(output).To(ContainSubstring("key"))
			Expect(output).To(ContainSubstring("value"))
		})

		It("respects debug level", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))
			l.Debug("debug msg")

			Expect(buf.String()).To(ContainSubstring("debug msg"))
		})

		It("filters debug when not enabled", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(false))
			l.Debug("hidden")

			Expect(buf.String()).To(BeEmpty())
		})

		It("creates a JSON logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Info("structured", zap.Int("count", 42))

			parsed := parseJSONLine(&buf)
			Expect(parsed["msg"]).To(Equal("structured"))
			Expect(parsed["level"]).To(Equal("info"))
			Expect(parsed["count"]).To(BeNumerically("==", 42))
		})

		It("supports multiple writers", func() {
			var buf1, buf2 bytes.Buffer
			l := logger.New(logger.WithWriters(&buf1, &buf2))
			l.Info("multi")

			Expect(buf1.String()).To(ContainSubstring("multi"))
			Expect(buf2.String()).To(ContainSubstring("multi"))
		})

		It("omits the caller when disabled", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithCaller(false))
			l.Info("no caller")

			Expect(parseJSONLine(&buf)).NotTo(HaveKey("caller"))
		})
	})

	Describe("NewLoggerWithWriters", func() {
		It("writes to every writer at the requested level", func() {
			var buf bytes.Buffer
			l := logger.NewLoggerWithWriters(true, &buf)
			l.Debug("visible")

			Expect(buf.String()).To(ContainSubstring("visible"))
			Expect(buf.String()).To(ContainSubstring("DEBUG"))
		})
	})

	Describe("Nop", func() {
		It("does not panic on any method", func() {
			l := logger.Nop()
			Expect(func() {
				l.Debug("msg")
				l.Info("msg")
				l.Warn("msg")
				l.Error("msg")
				l.With(zap.String("key", "value")).Info("msg")
				l.Named("group").Info("msg")
			}).NotTo(Panic())
		})

		It("discards all output", func() {
			Expect(logger.Nop().Core().Enabled(zapcore.ErrorLevel)).To(BeFalse())
		})
	})

	Describe("Multi", func() {
		It("dispatches to all loggers", func() {
			var buf1, buf2 bytes.Buffer
			l1 := logger.New(logger.WithWriter(&buf1))
			l2 := logger.New(logger.WithWriter(&buf2), logger.WithJSON(true))
			multi := logger.Multi(l1, l2)

			multi.Info("broadcast", zap.String("key", "val"))

			Expect(buf1.String()).To(ContainSubstring("broadcast"))
			Expect(parseJSONLine(&buf2)["key"]).To(Equal("val"))
		})

		It("keeps each logger's level", func() {
			var buf1, buf2 bytes.Buffer
			l1 := logger.New(logger.WithWriter(&buf1), logger.WithDebug(true))
			l2 := logger.New(logger.WithWriter(&buf2))
			logger.Multi(l1, l2).Debug("only debug")

			Expect(buf1.String()).To(ContainSubstring("only debug"))
			Expect(buf2.String()).To(BeEmpty())
		})

		It("supports With on multi logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			child := logger.Multi(l).With(zap.String("component", "test"))
			child.Info("hello")

			Expect(parseJSONLine(&buf)["component"]).To(Equal("test"))
		})
	})

	Describe("With", func() {
		It("binds fields to child logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.With(zap.String("service", "proxy")).Info("started")

			parsed := parseJSONLine(&buf)
			Expect(parsed["service"]).To(Equal("proxy"))
			Expect(parsed["msg"]).To(Equal("started"))
		})

		It("nests fields under a namespace", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.With(zap.Namespace("request")).Info("processed", zap.String("method", "POST"))

			group, ok := parseJSONLine(&buf)["request"].(map[string]any)
			Expect(ok).To(BeTrue(), "expected 'request' namespace in JSON output")
			Expect(group["method"]).To(Equal("POST"))
		})
	})
})
