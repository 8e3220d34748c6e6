package pagescmder_test

import (
	"bytes"
	"io"
	"net"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/api"
	pagescmder "github.com/papercomputeco/quill/cmd/quill/pages"
	"github.com/papercomputeco/quill/pkg/logger"
	"github.com/papercomputeco/quill/pkg/storage/inmemory"
)

var _ = Describe("pages command", func() {
	var (
		srv    *api.Server
		target string
	)

	BeforeEach(func() {
		var err error
		srv, err = api.NewServer(api.Config{}, inmemory.NewDriver(), logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		go func() {
			_ = srv.RunWithListener(ln)
		}()
		target = "http://" + ln.Addr().String()
	})

	AfterEach(func() {
		Expect(srv.Shutdown()).To(Succeed())
	})

	run := func(stdin string, args ...string) (string, error) {
		root := &cobra.Command{Use: "quill"}
		root.PersistentFlags().String("config-dir", GinkgoT().TempDir(), "")
		root.AddCommand(pagescmder.NewPagesCmd())

		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(io.Discard)
		root.SetIn(strings.NewReader(stdin))
		root.SetArgs(append([]string{"pages", "--api-target", target}, args...))
		err := root.Execute()
		return out.String(), err
	}

	It("has the expected subcommands", func() {
		cmd := pagescmder.NewPagesCmd()
		names := []string{}
		for _, c := range cmd.Commands() {
			names = append(names, c.Name())
		}
		Expect(names).To(ConsistOf("list", "show", "create", "rm"))
	})

	It("creates, lists, shows and removes a page", func() {
		out, err := run("", "list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No pages."))

		out, err = run("# Agenda\n\nitem one", "create", "--title", "Standup", "--file", "-")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Created page Standup"))
		id := strings.TrimSpace(out[strings.LastIndex(out, " "):])

		out, err = run("", "list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(id))
		Expect(out).To(ContainSubstring("Standup"))

		out, err = run("", "show", id, "--raw")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("item one"))

		out, err = run("", "rm", id)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Deleted page"))

		_, err = run("", "show", id)
		Expect(err).To(MatchError(ContainSubstring("Page not found")))
	})

	It("shortens long titles in the listing", func() {
		long := strings.Repeat("quarterly ", 10)
		_, err := run("", "create", "--title", long, "--content", "x")
		Expect(err).NotTo(HaveOccurred())

		out, err := run("", "list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(long[:48] + "..."))
		Expect(out).NotTo(ContainSubstring(long))
	})

	It("rejects content and file together", func() {
		_, err := run("", "create", "--title", "x", "--content", "a", "--file", "b")
		Expect(err).To(HaveOccurred())
	})
})
