package quillcmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	quillcmder "github.com/papercomputeco/quill/cmd/quill"
)

var _ = Describe("NewQuillCmd", func() {
	It("wires every top-level command", func() {
		cmd := quillcmder.NewQuillCmd()
		names := []string{}
		for _, c := range cmd.Commands() {
			names = append(names, c.Name())
		}
		Expect(names).To(ContainElements("serve", "chat", "pages", "tables", "models", "config", "init", "version"))
	})

	It("has serve relay and serve api subcommands", func() {
		cmd := quillcmder.NewQuillCmd()
		serve, _, err := cmd.Find([]string{"serve"})
		Expect(err).NotTo(HaveOccurred())

		names := []string{}
		for _, c := range serve.Commands() {
			names = append(names, c.Name())
		}
		Expect(names).To(ConsistOf("relay", "api"))
	})

	It("exposes the global flags", func() {
		cmd := quillcmder.NewQuillCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("prints the version", func() {
		cmd := quillcmder.NewQuillCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"version"})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(HavePrefix("Version: dev\n"))
	})

	It("registers the log file option on serve", func() {
		cmd := quillcmder.NewQuillCmd()
		serve, _, err := cmd.Find([]string{"serve"})
		Expect(err).NotTo(HaveOccurred())
		Expect(serve.Flags().Lookup("log-file")).NotTo(BeNil())
		Expect(serve.Flags().Lookup("relay-listen").DefValue).To(Equal(":8080"))
		Expect(serve.Flags().Lookup("api-listen").DefValue).To(Equal(":8081"))
	})

	It("fails serve on an invalid request timeout before binding", func() {
		cmd := quillcmder.NewQuillCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"serve", "--config-dir", GinkgoT().TempDir(), "--request-timeout", "soon"})
		Expect(cmd.Execute()).NotTo(Succeed())
	})
})
