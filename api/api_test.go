package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/andybalholm/brotli"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/quill/pkg/llm"
	"github.com/papercomputeco/quill/pkg/logger"
	"github.com/papercomputeco/quill/pkg/storage/inmemory"
)

// newTestServer creates an API server backed by an in-memory driver.
func newTestServer() (*Server, *inmemory.Driver) {
	driver := inmemory.NewDriver()
	s, err := NewServer(Config{ListenAddr: ":0"}, driver, logger.Nop())
	Expect(err).NotTo(HaveOccurred())
	return s, driver
}

// call sends a request through app.Test and returns the response.
func call(s *Server, method, path, body string) *http.Response {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	Expect(err).NotTo(HaveOccurred())
	return resp
}

// decode reads the JSON body into v and closes it.
func decode(resp *http.Response, v any) {
	defer resp.Body.Close()
	Expect(json.NewDecoder(resp.Body).Decode(v)).To(Succeed())
}

func errorMessage(resp *http.Response) string {
	var e llm.ErrorResponse
	decode(resp, &e)
	return e.Error
}

var _ = Describe("NewServer", func() {
	It("requires a store", func() {
		_, err := NewServer(Config{}, nil, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("storage driver is required")))
	})

	It("requires a logger", func() {
		_, err := NewServer(Config{}, inmemory.NewDriver(), nil)
		Expect(err).To(MatchError(ContainSubstring("logger is required")))
	})
})

var _ = Describe("Server", func() {
	var s *Server

	BeforeEach(func() {
		s, _ = newTestServer()
	})

	It("answers ping", func() {
		resp := call(s, http.MethodGet, "/ping", "")
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		Expect(string(body)).To(Equal(`"pong"`))
	})

	It("rejects malformed bodies", func() {
		resp := call(s, http.MethodPost, "/api/workspace/pages", `{"title":`)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(errorMessage(resp)).To(Equal("Invalid request body"))
	})

	It("compresses JSON for clients that accept brotli", func() {
		for range 20 {
			resp := call(s, http.MethodPost, "/api/workspace/pages", `{"title":"A page with a reasonably long title","content":"`+strings.Repeat("lorem ipsum ", 20)+`"}`)
			resp.Body.Close()
		}

		req := httptest.NewRequest(http.MethodGet, "/api/workspace/pages", nil)
		req.Header.Set("Accept-Encoding", "br")
		resp, err := s.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.Header.Get("Content-Encoding")).To(Equal("br"))

		var got PagesResponse
		Expect(json.NewDecoder(brotli.NewReader(resp.Body)).Decode(&got)).To(Succeed())
		Expect(got.Pages).To(HaveLen(20))
	})

	It("mounts the MCP endpoint", func() {
		req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json, text/event-stream")
		resp, err := s.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.StatusCode).NotTo(Equal(http.StatusNotFound))
	})
})
