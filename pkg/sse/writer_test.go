package sse_test

import (
	"bufio"
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/quill/pkg/sse"
)

var _ = Describe("Writer", func() {
	It("writes text frames and the done marker", func() {
		var buf bytes.Buffer
		w := sse.NewWriter(&buf)

		Expect(w.WriteText("Hello")).To(Succeed())
		Expect(w.WriteDone()).To(Succeed())

		Expect(buf.String()).To(Equal(
			"data: {\"type\":\"text\",\"content\":\"Hello\"}\n\n" +
				"data: [DONE]\n\n",
		))
	})

	It("does not HTML-escape content", func() {
		var buf bytes.Buffer
		Expect(sse.NewWriter(&buf).WriteText("<b>&</b>")).To(Succeed())
		Expect(buf.String()).To(ContainSubstring(`"content":"<b>&</b>"`))
	})

	It("escapes newlines so a frame stays on one line", func() {
		var buf bytes.Buffer
		Expect(sse.NewWriter(&buf).WriteText("a\nb")).To(Succeed())
		Expect(strings.Count(buf.String(), "\n")).To(Equal(2))
	})

	It("flushes buffered writers after each frame", func() {
		var buf bytes.Buffer
		bw := bufio.NewWriterSize(&buf, 4096)

		Expect(sse.NewWriter(bw).WriteText("x")).To(Succeed())
		Expect(buf.Len()).To(BeNumerically(">", 0))
	})

	It("round-trips through the reader", func() {
		var buf bytes.Buffer
		w := sse.NewWriter(&buf)
		Expect(w.WriteText("one")).To(Succeed())
		Expect(w.WriteDone()).To(Succeed())

		r := sse.NewReader(&buf)
		ev, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Data).To(Equal(`{"type":"text","content":"one"}`))

		ev, err = r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.IsDone()).To(BeTrue())
	})
})
