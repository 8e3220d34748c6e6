package mcp

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/quill/pkg/logger"
	"github.com/papercomputeco/quill/pkg/storage/inmemory"
	"github.com/papercomputeco/quill/pkg/workspace"
)

var _ = Describe("Workspace tools", func() {
	var (
		s      *Server
		driver *inmemory.Driver
		ctx    context.Context
		now    time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
		driver = inmemory.NewDriver()

		var err error
		s, err = NewServer(Config{Store: driver, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())

		Expect(driver.CreatePage(ctx, &workspace.Page{ID: "root", Title: "Root", Content: "top", CreatedAt: now, UpdatedAt: now})).To(Succeed())
		Expect(driver.CreatePage(ctx, &workspace.Page{ID: "child", Title: "Child", ParentID: "root", CreatedAt: now, UpdatedAt: now.Add(time.Hour)})).To(Succeed())
		Expect(driver.CreateTable(ctx, &workspace.Table{
			ID:      "tasks",
			Name:    "Tasks",
			Columns: []workspace.Column{{ID: "n", Name: "Name", Type: workspace.ColumnText}},
			Rows:    []workspace.Row{{ID: "r", Cells: map[string]any{"n": "write tests"}}},
		})).To(Succeed())
	})

	Describe("list_pages", func() {
		It("lists root pages by default", func() {
			res, out, err := s.handleListPages(ctx, nil, ListPagesInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.Pages).To(HaveLen(1))
			Expect(out.Pages[0].ID).To(Equal("root"))
			Expect(out.Pages[0].UpdatedAt).To(Equal("2025-02-01T10:00:00Z"))
		})

		It("lists children of a parent", func() {
			_, out, err := s.handleListPages(ctx, nil, ListPagesInput{ParentID: "root"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Pages).To(HaveLen(1))
			Expect(out.Pages[0].ParentID).To(Equal("root"))
		})

		It("returns an empty list rather than null", func() {
			res, out, err := s.handleListPages(ctx, nil, ListPagesInput{ParentID: "child"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Pages).To(BeEmpty())
			Expect(res.Content).To(HaveLen(1))
		})
	})

	Describe("get_page", func() {
		It("requires an id", func() {
			res, _, err := s.handleGetPage(ctx, nil, GetPageInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})

		It("returns the page", func() {
			res, out, err := s.handleGetPage(ctx, nil, GetPageInput{ID: "root"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.Page.Content).To(Equal("top"))
			Expect(out.Page.CreatedAt).To(Equal("2025-02-01T10:00:00Z"))
		})

		It("reports a missing page as a tool error", func() {
			res, _, err := s.handleGetPage(ctx, nil, GetPageInput{ID: "nope"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})

	Describe("build_context", func() {
		It("renders pages before tables and derives the system prompt", func() {
			_, out, err := s.handleBuildContext(ctx, nil, BuildContextInput{
				TableIDs: []string{"tasks"},
				PageIDs:  []string{"root"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Context).To(Equal("# Root\n\ntop\n\n# Tasks\n\nName\nwrite tests"))
			Expect(out.SystemPrompt).To(Equal("You are a helpful AI assistant. Use the following context:\n\n" + out.Context))
		})

		It("yields the bare prompt for no items", func() {
			_, out, err := s.handleBuildContext(ctx, nil, BuildContextInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Context).To(BeEmpty())
			Expect(out.SystemPrompt).To(Equal("You are a helpful AI assistant."))
		})

		It("reports missing documents as tool errors", func() {
			res, _, err := s.handleBuildContext(ctx, nil, BuildContextInput{TableIDs: []string{"gone"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})
})
