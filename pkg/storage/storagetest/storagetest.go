// Package storagetest holds the behaviour every storage.Driver must share.
// Backend test suites call DriverBehaviors from inside a Describe block.
package storagetest

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/quill/pkg/llm"
	"github.com/papercomputeco/quill/pkg/storage"
	"github.com/papercomputeco/quill/pkg/workspace"
)

var base = time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func page(id, title, parent string, updated int) *workspace.Page {
	return &workspace.Page{
		ID:        id,
		Title:     title,
		Content:   "content of " + title,
		ParentID:  parent,
		CreatedAt: at(0),
		UpdatedAt: at(updated),
	}
}

func table(id, name string, updated int) *workspace.Table {
	return &workspace.Table{
		ID:   id,
		Name: name,
		Columns: []workspace.Column{
			{ID: "c-name", Name: "Name", Type: workspace.ColumnText},
			{ID: "c-status", Name: "Status", Type: workspace.ColumnSelect, Options: []string{"Todo", "Done"}},
		},
		Rows: []workspace.Row{
			{ID: "r1", Cells: map[string]any{"c-name": "first", "c-status": "Todo"}},
		},
		CreatedAt: at(0),
		UpdatedAt: at(updated),
	}
}

func ids[T any](items []*T, id func(*T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func pageID(p *workspace.Page) string   { return p.ID }
func tableID(t *workspace.Table) string { return t.ID }

// DriverBehaviors registers the shared specs. newDriver must return an
// empty store; it is closed after each spec.
func DriverBehaviors(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
			driver = nil
		}
	})

	Describe("pages", func() {
		It("stores and retrieves a page", func() {
			p := page("p1", "Roadmap", "", 1)
			p.Icon = "🗺"
			Expect(driver.CreatePage(ctx, p)).To(Succeed())

			got, err := driver.GetPage(ctx, "p1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(p))
		})

		It("returns NotFoundError for a missing page", func() {
			_, err := driver.GetPage(ctx, "missing")
			Expect(storage.IsNotFound(err)).To(BeTrue())
			Expect(err).To(MatchError(storage.NotFoundError{Kind: storage.KindPage, ID: "missing"}))
		})

		It("lists root pages or children, newest first", func() {
			Expect(driver.CreatePage(ctx, page("a", "A", "", 1))).To(Succeed())
			Expect(driver.CreatePage(ctx, page("b", "B", "", 3))).To(Succeed())
			Expect(driver.CreatePage(ctx, page("c", "C", "a", 2))).To(Succeed())
			Expect(driver.CreatePage(ctx, page("d", "D", "a", 5))).To(Succeed())

			roots, err := driver.ListPages(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(roots, pageID)).To(Equal([]string{"b", "a"}))

			empty := ""
			roots, err = driver.ListPages(ctx, &empty)
			Expect(err).NotTo(HaveOccurred())
			Expect(roots).To(HaveLen(2))

			parent := "a"
			children, err := driver.ListPages(ctx, &parent)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(children, pageID)).To(Equal([]string{"d", "c"}))
		})

		It("returns an empty, non-nil list when nothing matches", func() {
			parent := "nobody"
			pages, err := driver.ListPages(ctx, &parent)
			Expect(err).NotTo(HaveOccurred())
			Expect(pages).NotTo(BeNil())
			Expect(pages).To(BeEmpty())
		})

		It("updates an existing page", func() {
			p := page("p1", "Draft", "", 1)
			Expect(driver.CreatePage(ctx, p)).To(Succeed())

			p.Title = "Final"
			p.Content = "done"
			p.UpdatedAt = at(10)
			Expect(driver.UpdatePage(ctx, p)).To(Succeed())

			got, err := driver.GetPage(ctx, "p1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("Final"))
			Expect(got.Content).To(Equal("done"))
			Expect(got.UpdatedAt).To(Equal(at(10)))
			Expect(got.CreatedAt).To(Equal(at(0)))
		})

		It("refuses to update a missing page", func() {
			err := driver.UpdatePage(ctx, page("ghost", "Ghost", "", 1))
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})

		It("deletes a page with its whole subtree", func() {
			Expect(driver.CreatePage(ctx, page("root", "Root", "", 1))).To(Succeed())
			Expect(driver.CreatePage(ctx, page("child", "Child", "root", 1))).To(Succeed())
			Expect(driver.CreatePage(ctx, page("grandchild", "Grandchild", "child", 1))).To(Succeed())
			Expect(driver.CreatePage(ctx, page("other", "Other", "", 1))).To(Succeed())

			Expect(driver.DeletePage(ctx, "root")).To(Succeed())

			for _, id := range []string{"root", "child", "grandchild"} {
				_, err := driver.GetPage(ctx, id)
				Expect(storage.IsNotFound(err)).To(BeTrue(), id)
			}
			_, err := driver.GetPage(ctx, "other")
			Expect(err).NotTo(HaveOccurred())
		})

		It("deletes a page that is its own parent", func() {
			Expect(driver.CreatePage(ctx, page("loop", "Loop", "", 1))).To(Succeed())
			Expect(driver.CreatePage(ctx, page("under", "Under", "loop", 1))).To(Succeed())
			Expect(driver.UpdatePage(ctx, page("loop", "Loop", "loop", 2))).To(Succeed())

			deadline, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			Expect(driver.DeletePage(deadline, "loop")).To(Succeed())

			for _, id := range []string{"loop", "under"} {
				_, err := driver.GetPage(ctx, id)
				Expect(storage.IsNotFound(err)).To(BeTrue(), id)
			}
		})

		It("deletes pages whose parents form a cycle", func() {
			Expect(driver.CreatePage(ctx, page("a", "A", "b", 1))).To(Succeed())
			Expect(driver.CreatePage(ctx, page("b", "B", "a", 1))).To(Succeed())
			Expect(driver.CreatePage(ctx, page("c", "C", "b", 1))).To(Succeed())
			Expect(driver.CreatePage(ctx, page("other", "Other", "", 1))).To(Succeed())

			deadline, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			Expect(driver.DeletePage(deadline, "a")).To(Succeed())

			for _, id := range []string{"a", "b", "c"} {
				_, err := driver.GetPage(ctx, id)
				Expect(storage.IsNotFound(err)).To(BeTrue(), id)
			}
			_, err := driver.GetPage(ctx, "other")
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports deleting a missing page", func() {
			Expect(storage.IsNotFound(driver.DeletePage(ctx, "missing"))).To(BeTrue())
		})

		It("rejects nil pages", func() {
			Expect(driver.CreatePage(ctx, nil)).To(MatchError(ContainSubstring("nil page")))
		})
	})

	Describe("tables", func() {
		It("stores and retrieves a table", func() {
			t := table("t1", "Tasks", 1)
			Expect(driver.CreateTable(ctx, t)).To(Succeed())

			got, err := driver.GetTable(ctx, "t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(t))
		})

		It("returns NotFoundError for a missing table", func() {
			_, err := driver.GetTable(ctx, "missing")
			Expect(err).To(MatchError(storage.NotFoundError{Kind: storage.KindTable, ID: "missing"}))
		})

		It("lists tables newest first", func() {
			Expect(driver.CreateTable(ctx, table("old", "Old", 1))).To(Succeed())
			Expect(driver.CreateTable(ctx, table("new", "New", 9))).To(Succeed())
			Expect(driver.CreateTable(ctx, table("mid", "Mid", 4))).To(Succeed())

			tables, err := driver.ListTables(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(tables, tableID)).To(Equal([]string{"new", "mid", "old"}))
		})

		It("replaces a table on update", func() {
			t := table("t1", "Tasks", 1)
			Expect(driver.CreateTable(ctx, t)).To(Succeed())

			t.Name = "Chores"
			t.Rows = []workspace.Row{}
			t.UpdatedAt = at(7)
			Expect(driver.UpdateTable(ctx, t)).To(Succeed())

			got, err := driver.GetTable(ctx, "t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Chores"))
			Expect(got.Rows).To(BeEmpty())
			Expect(got.Columns).To(HaveLen(2))
			Expect(got.UpdatedAt).To(Equal(at(7)))
		})

		It("appends rows and bumps updatedAt", func() {
			Expect(driver.CreateTable(ctx, table("t1", "Tasks", 1))).To(Succeed())

			row := workspace.Row{ID: "r2", Cells: map[string]any{"c-name": "second", "points": 3.0}}
			Expect(driver.AppendRow(ctx, "t1", row, at(30))).To(Succeed())

			got, err := driver.GetTable(ctx, "t1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Rows).To(HaveLen(2))
			Expect(got.Rows[1]).To(Equal(row))
			Expect(got.UpdatedAt).To(Equal(at(30)))
		})

		It("reports appending to a missing table", func() {
			err := driver.AppendRow(ctx, "missing", workspace.Row{ID: "r", Cells: map[string]any{}}, at(1))
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})

		It("deletes tables", func() {
			Expect(driver.CreateTable(ctx, table("t1", "Tasks", 1))).To(Succeed())
			Expect(driver.DeleteTable(ctx, "t1")).To(Succeed())

			_, err := driver.GetTable(ctx, "t1")
			Expect(storage.IsNotFound(err)).To(BeTrue())
			Expect(storage.IsNotFound(driver.DeleteTable(ctx, "t1"))).To(BeTrue())
			Expect(storage.IsNotFound(driver.UpdateTable(ctx, table("t1", "x", 1)))).To(BeTrue())
		})
	})

	Describe("turns", func() {
		turn := func(id string, completed int) *storage.Turn {
			return &storage.Turn{
				ID:       id,
				Model:    "claude-4-sonnet",
				Provider: "anthropic",
				Messages: []llm.ChatMessage{
					{ID: "m1", Role: llm.RoleUser, Content: "hello"},
				},
				Response:    "hi there",
				StartedAt:   at(completed - 1),
				CompletedAt: at(completed),
			}
		}

		It("saves and lists turns newest first with a limit", func() {
			Expect(driver.SaveTurn(ctx, turn("t1", 1))).To(Succeed())
			Expect(driver.SaveTurn(ctx, turn("t3", 3))).To(Succeed())
			Expect(driver.SaveTurn(ctx, turn("t2", 2))).To(Succeed())

			all, err := driver.ListTurns(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(3))
			Expect(all[0]).To(Equal(turn("t3", 3)))
			Expect(all[2].ID).To(Equal("t1"))

			limited, err := driver.ListTurns(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(limited).To(HaveLen(2))
			Expect(limited[1].ID).To(Equal("t2"))
		})

		It("rejects nil turns", func() {
			Expect(driver.SaveTurn(ctx, nil)).To(HaveOccurred())
		})
	})
}
