package llm_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/quill/pkg/llm"
)

var _ = Describe("Delta", func() {
	It("wraps the abort sentinel and the cause in error deltas", func() {
		cause := errors.New("upstream 529")
		d := llm.ErrorDelta(cause)

		Expect(d.Kind).To(Equal(llm.DeltaError))
		Expect(d.Terminal()).To(BeTrue())
		Expect(errors.Is(d.Err, llm.ErrStreamAborted)).To(BeTrue())
		Expect(errors.Is(d.Err, cause)).To(BeTrue())
	})

	It("does not double wrap an already aborted error", func() {
		d := llm.ErrorDelta(llm.ErrStreamAborted)
		Expect(d.Err).To(BeIdenticalTo(llm.ErrStreamAborted))
		Expect(llm.ErrorDelta(nil).Err).To(BeIdenticalTo(llm.ErrStreamAborted))
	})

	It("classifies terminal kinds", func() {
		Expect(llm.TextDelta("x").Terminal()).To(BeFalse())
		Expect(llm.DoneDelta().Terminal()).To(BeTrue())
		Expect(llm.DeltaDone.String()).To(Equal("done"))
	})

	Describe("Collect", func() {
		It("concatenates text up to done", func() {
			ch := make(chan llm.Delta, 4)
			ch <- llm.TextDelta("Hel")
			ch <- llm.TextDelta("lo")
			ch <- llm.DoneDelta()
			close(ch)

			text, err := llm.Collect(ch)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Hello"))
		})

		It("returns partial text with the error", func() {
			ch := make(chan llm.Delta, 2)
			ch <- llm.TextDelta("par")
			ch <- llm.ErrorDelta(errors.New("boom"))
			close(ch)

			text, err := llm.Collect(ch)
			Expect(text).To(Equal("par"))
			Expect(err).To(MatchError(llm.ErrStreamAborted))
		})

		It("treats a channel closed early as aborted", func() {
			ch := make(chan llm.Delta)
			close(ch)

			_, err := llm.Collect(ch)
			Expect(err).To(MatchError(llm.ErrStreamAborted))
		})
	})

	Describe("Emit", func() {
		It("gives up when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			Expect(llm.Emit(ctx, make(chan llm.Delta), llm.TextDelta("x"))).To(BeFalse())
		})
	})
})

var _ = Describe("ChatMessage", func() {
	It("validates roles", func() {
		Expect(llm.ValidRole("user")).To(BeTrue())
		Expect(llm.ValidRole("system")).To(BeTrue())
		Expect(llm.ValidRole("tool")).To(BeFalse())
		Expect(llm.ValidRole("")).To(BeFalse())
	})

	It("strips system turns while keeping order", func() {
		msgs := []llm.ChatMessage{
			{Role: "system", Content: "s"},
			{Role: "user", Content: "u1"},
			{Role: "assistant", Content: "a1"},
			{Role: "system", Content: "s2"},
			{Role: "user", Content: "u2"},
		}
		out := llm.WithoutSystem(msgs)
		Expect(out).To(HaveLen(3))
		Expect(out[0].Content).To(Equal("u1"))
		Expect(out[2].Content).To(Equal("u2"))
	})
})
