package storage_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/quill/pkg/storage"
	"github.com/papercomputeco/quill/pkg/storage/inmemory"
	"github.com/papercomputeco/quill/pkg/workspace"
)

var _ = Describe("NotFoundError", func() {
	It("names the kind and id", func() {
		err := storage.NotFoundError{Kind: storage.KindTable, ID: "t1"}
		Expect(err.Error()).To(Equal("table not found: t1"))
	})

	It("is detected through wrapping", func() {
		wrapped := fmt.Errorf("loading: %w", storage.NotFoundError{Kind: storage.KindPage, ID: "p"})
		Expect(storage.IsNotFound(wrapped)).To(BeTrue())
		Expect(storage.IsNotFound(fmt.Errorf("boom"))).To(BeFalse())
		Expect(storage.IsNotFound(nil)).To(BeFalse())
	})
})

var _ = Describe("LoadContext", func() {
	var (
		ctx    context.Context
		driver *inmemory.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()
		Expect(driver.CreatePage(ctx, &workspace.Page{ID: "p1", Title: "Plan"})).To(Succeed())
		Expect(driver.CreateTable(ctx, &workspace.Table{ID: "t1", Name: "Tasks"})).To(Succeed())
	})

	It("resolves refs in order", func() {
		items, err := storage.LoadContext(ctx, driver, []workspace.ContextRef{
			{Type: workspace.RefTable, ID: "t1"},
			{Type: workspace.RefPage, ID: "p1"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(2))
		Expect(items[0].Table.Name).To(Equal("Tasks"))
		Expect(items[1].Page.Title).To(Equal("Plan"))
	})

	It("returns the NotFoundError of a missing document", func() {
		_, err := storage.LoadContext(ctx, driver, []workspace.ContextRef{{Type: workspace.RefPage, ID: "gone"}})
		Expect(storage.IsNotFound(err)).To(BeTrue())
	})

	It("rejects unknown ref types", func() {
		_, err := storage.LoadContext(ctx, driver, []workspace.ContextRef{{Type: "image", ID: "x"}})
		Expect(err).To(MatchError(ContainSubstring(`unknown context item type "image"`)))
	})
})
