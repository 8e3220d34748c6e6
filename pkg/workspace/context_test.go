package workspace_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/quill/pkg/workspace"
)

var _ = Describe("SystemPrompt", func() {
	It("returns the bare preamble without context", func() {
		Expect(workspace.SystemPrompt("")).To(Equal("You are a helpful AI assistant."))
	})

	It("appends context after the preamble", func() {
		Expect(workspace.SystemPrompt("Project X notes")).To(Equal(
			"You are a helpful AI assistant. Use the following context:\n\nProject X notes",
		))
	})
})

var _ = Describe("RenderContext", func() {
	table := &workspace.Table{
		Name: "Tasks",
		Columns: []workspace.Column{
			{ID: "n", Name: "Name"},
			{ID: "s", Name: "Status"},
			{ID: "d", Name: "Done"},
			{ID: "e", Name: "Estimate"},
			{ID: "t", Name: "Tags"},
		},
		Rows: []workspace.Row{
			{ID: "1", Cells: map[string]any{"n": "Write docs", "s": "Todo", "d": false, "e": 2.5, "t": []any{"a", "b"}}},
			{ID: "2", Cells: map[string]any{"n": "Ship"}},
		},
	}
	page := &workspace.Page{Title: "Plan", Content: "Ship on Friday."}

	It("renders pages before tables regardless of order", func() {
		out := workspace.RenderContext([]workspace.ContextItem{{Table: table}, {Page: page}})

		Expect(out).To(Equal(
			"# Plan\n\nShip on Friday.\n\n" +
				"# Tasks\n\n" +
				"Name | Status | Done | Estimate | Tags\n" +
				"Write docs | Todo | no | 2.5 | a, b\n" +
				"Ship |  |  |  | ",
		))
	})

	It("renders an empty page as just its heading", func() {
		Expect(workspace.RenderContext([]workspace.ContextItem{{Page: &workspace.Page{Title: "Empty"}}})).To(Equal("# Empty"))
	})

	It("returns empty for no items", func() {
		Expect(workspace.RenderContext(nil)).To(BeEmpty())
	})
})
