package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/quill/pkg/logger"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func decodeLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	ExpectWithOffset(1, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("New", func() {
	It("writes info-level text by default", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf))
		l.Debug("hidden")
		l.Info("relay listening", "listen", ":8080")

		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
		Expect(buf.String()).To(ContainSubstring("relay listening"))
		Expect(buf.String()).To(ContainSubstring("listen=:8080"))
	})

	It("lets debug records through when enabled", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))
		l.Debug("relaying chat request", "model", "gpt-4o")

		Expect(buf.String()).To(ContainSubstring("relaying chat request"))
	})

	It("emits one JSON object per record", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
		l.Info("turn recorded", "messages", 3)

		parsed := decodeLine(&buf)
		Expect(parsed["msg"]).To(Equal("turn recorded"))
		Expect(parsed["messages"]).To(BeNumerically("==", 3))
	})

	It("prefers the pretty handler over JSON", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true), logger.WithJSON(true))
		l.Warn("no provider API keys found")

		Expect(buf.String()).To(ContainSubstring("no provider API keys found"))
		Expect(strings.TrimSpace(buf.String())).NotTo(HavePrefix("{"))
	})

	It("filters pretty output below the configured level", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
		l.Debug("hidden")

		Expect(buf.String()).To(BeEmpty())
	})

	It("tags records with the component", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithComponent("api"))
		l.Error("failed to list pages")

		Expect(decodeLine(&buf)["component"]).To(Equal("api"))
	})

	It("copies each record to every writer", func() {
		var a, b bytes.Buffer
		l := logger.New(logger.WithWriters(&a, &b))
		l.Info("shutdown")

		Expect(a.String()).To(ContainSubstring("shutdown"))
		Expect(b.String()).To(Equal(a.String()))
	})

	It("adds the caller when asked", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithSource(true))
		l.Info("with source")

		Expect(decodeLine(&buf)).To(HaveKey(slog.SourceKey))
	})
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		h := logger.Nop().Handler()
		for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
			Expect(h.Enabled(context.Background(), level)).To(BeFalse())
		}
	})

	It("survives With and WithGroup", func() {
		Expect(func() {
			logger.Nop().With("k", "v").WithGroup("g").Error("ignored")
		}).NotTo(Panic())
	})
})

var _ = Describe("Multi", func() {
	It("sends a record to the console and the log file", func() {
		var console, file bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(&console)),
			logger.New(logger.WithWriter(&file), logger.WithJSON(true)),
		)
		l.Info("starting API server", "listen", ":8081")

		Expect(console.String()).To(ContainSubstring("starting API server"))
		Expect(decodeLine(&file)["listen"]).To(Equal(":8081"))
	})

	It("honours each handler's own level", func() {
		var info, debug bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(&info)),
			logger.New(logger.WithWriter(&debug), logger.WithDebug(true)),
		)
		l.Debug("upstream chunk")

		Expect(info.String()).To(BeEmpty())
		Expect(debug.String()).To(ContainSubstring("upstream chunk"))
	})

	It("keeps writing to healthy handlers when one fails", func() {
		var console bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(failingWriter{}), logger.WithJSON(true)),
			logger.New(logger.WithWriter(&console)),
		)

		err := l.Handler().Handle(context.Background(), slog.NewRecord(fixedTime(), slog.LevelInfo, "still here", 0))
		Expect(err).To(MatchError(ContainSubstring("disk full")))
		Expect(console.String()).To(ContainSubstring("still here"))
	})

	It("carries attributes and groups through to every handler", func() {
		var a, b bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(&a), logger.WithJSON(true)),
			logger.New(logger.WithWriter(&b), logger.WithJSON(true)),
		)
		l.With("component", "relay").WithGroup("turn").Info("recorded", "id", "t1")

		for _, buf := range []*bytes.Buffer{&a, &b} {
			parsed := decodeLine(buf)
			Expect(parsed["component"]).To(Equal("relay"))
			Expect(parsed["turn"]).To(HaveKeyWithValue("id", "t1"))
		}
	})
})

func fixedTime() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}
