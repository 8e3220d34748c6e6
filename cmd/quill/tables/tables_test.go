package tablescmder

import (
	"bytes"
	"io"
	"net"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/api"
	"github.com/papercomputeco/quill/pkg/logger"
	"github.com/papercomputeco/quill/pkg/storage/inmemory"
	"github.com/papercomputeco/quill/pkg/workspace"
)

var _ = Describe("parseColumns", func() {
	It("parses name, type and select options", func() {
		cols, err := parseColumns([]string{"Title", "Score:number", "Status:select:Todo|Done"})
		Expect(err).NotTo(HaveOccurred())
		Expect(cols).To(Equal([]workspace.Column{
			{Name: "Title", Type: workspace.ColumnText},
			{Name: "Score", Type: workspace.ColumnNumber},
			{Name: "Status", Type: workspace.ColumnSelect, Options: []string{"Todo", "Done"}},
		}))
	})

	It("rejects unknown types", func() {
		_, err := parseColumns([]string{"When:time"})
		Expect(err).To(MatchError(ContainSubstring(`unknown type "time"`)))
	})

	It("rejects a missing name", func() {
		_, err := parseColumns([]string{":text"})
		Expect(err).To(MatchError(ContainSubstring("missing name")))
	})
})

var _ = Describe("parseCells", func() {
	columns := []workspace.Column{
		{ID: "c1", Name: "Name", Type: workspace.ColumnText},
		{ID: "c2", Name: "Score", Type: workspace.ColumnNumber},
		{ID: "c3", Name: "Done", Type: workspace.ColumnCheckbox},
		{ID: "c4", Name: "Tags", Type: workspace.ColumnMultiselect},
	}

	It("converts values by column type and keys them by column id", func() {
		cells, err := parseCells(columns, []string{"name=Write docs", "score=2.5", "Done=true", "Tags=a, b"})
		Expect(err).NotTo(HaveOccurred())
		Expect(cells).To(Equal(map[string]any{
			"c1": "Write docs",
			"c2": 2.5,
			"c3": true,
			"c4": []string{"a", "b"},
		}))
	})

	It("rejects unknown columns", func() {
		_, err := parseCells(columns, []string{"Owner=me"})
		Expect(err).To(MatchError(`unknown column "Owner"`))
	})

	It("rejects values that do not parse", func() {
		_, err := parseCells(columns, []string{"Score=lots"})
		Expect(err).To(MatchError(ContainSubstring(`column "Score"`)))
	})

	It("rejects assignments without =", func() {
		_, err := parseCells(columns, []string{"Name"})
		Expect(err).To(MatchError(ContainSubstring("expected column=value")))
	})
})

var _ = Describe("tables command", func() {
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

	run := func(args ...string) (string, error) {
		cmd := NewTablesCmd()
		root := &cobra.Command{Use: "quill"}
		root.PersistentFlags().String("config-dir", GinkgoT().TempDir(), "")
		root.AddCommand(cmd)

		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(io.Discard)
		root.SetArgs(append([]string{"tables", "--api-target", target}, args...))
		err := root.Execute()
		return out.String(), err
	}

	It("creates a table, adds a row and shows it", func() {
		out, err := run("create", "--name", "Tasks", "--column", "Title", "--column", "Points:number")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Created table Tasks"))

		id := strings.Fields(strings.TrimSpace(out[strings.Index(out, "Tasks")+len("Tasks"):]))[0]

		out, err = run("add-row", id, "Title=Ship it", "Points=3")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Added row"))

		out, err = run("show", id)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Title"))
		Expect(out).To(ContainSubstring("Ship it"))
		Expect(out).To(ContainSubstring("3"))

		out, err = run("list")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("(1 rows)"))
	})

	It("surfaces API errors", func() {
		_, err := run("show", "missing")
		Expect(err).To(MatchError(ContainSubstring("Table not found")))
	})
})
