package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/quill/pkg/llm"
	"github.com/papercomputeco/quill/pkg/llm/provider"
	"github.com/papercomputeco/quill/pkg/models"
	"github.com/papercomputeco/quill/pkg/sse"
	"github.com/papercomputeco/quill/pkg/workspace"
	"github.com/papercomputeco/quill/relay/worker"
)

const (
	msgMessagesRequired = "Messages are required"
	msgInvalidRole      = "Invalid message role"
	msgInternal         = "Internal server error"
)

// Relay is the streaming chat relay server. Completed turns are handed to
// its worker pool for asynchronous recording.
type Relay struct {
	config     Config
	registry   *models.Registry
	providers  provider.Set
	workerPool *worker.Pool
	logger     *slog.Logger
	server     *fiber.App
}

// ChatRequest is the body of POST /api/chat. Context is pre-rendered
// workspace text and is treated as opaque.
type ChatRequest struct {
	Messages []llm.ChatMessage `json:"messages"`
	Model    string            `json:"model"`
	Context  string            `json:"context,omitempty"`
}

// ModelInfo is one entry of GET /api/models.
type ModelInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	Default   bool   `json:"default"`
	Available bool   `json:"available"`
}

// ModelsResponse is the body of GET /api/models.
type ModelsResponse struct {
	Models  []ModelInfo `json:"models"`
	Default string      `json:"default"`
}

// New creates a new Relay.
func New(config Config, logger *slog.Logger) (*Relay, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	registry := config.Registry
	if registry == nil {
		registry = models.Builtin()
	}

	providers := config.Providers
	if providers == nil {
		providers = provider.Set{}
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	r := &Relay{
		config:    config,
		registry:  registry,
		providers: providers,
		logger:    logger,
		server:    app,
	}

	if config.TurnStore != nil {
		wp, err := worker.NewPool(&worker.Config{
			Store:     config.TurnStore,
			Publisher: config.Publisher,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create worker pool: %w", err)
		}
		r.workerPool = wp
	}

	app.Get("/ping", r.handlePing)
	app.Get("/api/models", r.handleModels)
	app.Post("/api/chat", r.handleChat)

	return r, nil
}

// Run starts the relay server on the configured listening address.
func (r *Relay) Run() error {
	r.logger.Info("starting relay server",
		"listen", r.config.ListenAddr,
		"providers", r.providers.Names(),
	)

	return r.server.Listen(r.config.ListenAddr)
}

// RunWithListener starts the relay server using the provided listener.
func (r *Relay) RunWithListener(listener net.Listener) error {
	r.logger.Info("starting relay server",
		"listen", listener.Addr().String(),
		"providers", r.providers.Names(),
	)

	return r.server.Listener(listener)
}

// Close shuts the server down and waits for the worker pool to drain.
func (r *Relay) Close() error {
	err := r.server.Shutdown()
	if r.workerPool != nil {
		r.workerPool.Close()
	}
	return err
}

func (r *Relay) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (r *Relay) handleModels(c *fiber.Ctx) error {
	def := r.registry.Default()
	resp := ModelsResponse{Default: def.ID}
	for _, m := range r.registry.List() {
		_, err := r.providers.For(m)
		resp.Models = append(resp.Models, ModelInfo{
			ID:        m.ID,
			Name:      m.Name,
			Provider:  m.Provider,
			Default:   m.ID == def.ID,
			Available: err == nil,
		})
	}
	return c.JSON(resp)
}

// handleChat validates the request, starts the provider stream and, once the
// first delta proves the upstream is healthy, streams frames to the client.
func (r *Relay) handleChat(c *fiber.Ctx) error {
	startTime := time.Now().UTC()

	// Decoded without regard to Content-Type.
	var req ChatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		r.logger.Error("failed to parse chat request", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: msgInternal})
	}

	if len(req.Messages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: msgMessagesRequired})
	}
	for _, m := range req.Messages {
		if !llm.ValidRole(m.Role) {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: msgInvalidRole})
		}
	}

	model := r.registry.Resolve(req.Model)
	prov, err := r.providers.For(model)
	if err != nil {
		r.logger.Error("no provider for model", "model", model.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: msgInternal})
	}

	r.logger.Debug("relaying chat request",
		"model", model.ID,
		"provider", prov.Name(),
		"message_count", len(req.Messages),
		"context_bytes", len(req.Context),
	)

	// The stream outlives this handler: fasthttp drains the body stream after
	// the handler returns, so the provider context cannot be the request's.
	ctx, cancel := r.turnContext()

	deltas := prov.Stream(ctx, llm.StreamRequest{
		Model:        model,
		Messages:     req.Messages,
		SystemPrompt: workspace.SystemPrompt(req.Context),
		MaxTokens:    model.MaxTokens,
	})

	first, ok := <-deltas
	if !ok || first.Kind == llm.DeltaError {
		cancel()
		r.logger.Error("upstream failed before streaming",
			"model", model.ID,
			"provider", prov.Name(),
			"error", first.Err,
		)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: msgInternal})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// io.Pipe gives per-frame backpressure: pw.Write blocks until fasthttp
	// has read the frame and flushed it as a chunk.
	pr, pw := io.Pipe()
	turn := worker.Job{
		Provider:  prov.Name(),
		Model:     model.ID,
		Messages:  req.Messages,
		StartedAt: startTime,
	}
	go r.pump(first, deltas, pw, cancel, turn)

	// Unknown size (-1) selects chunked transfer encoding.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

func (r *Relay) turnContext() (context.Context, context.CancelFunc) {
	if r.config.RequestTimeout > 0 {
		return context.WithTimeout(context.Background(), r.config.RequestTimeout)
	}
	return context.WithCancel(context.Background())
}

// pump writes deltas to the pipe until the stream terminates. A write error
// means the client went away; returning cancels the provider context.
func (r *Relay) pump(d llm.Delta, deltas <-chan llm.Delta, pw *io.PipeWriter, cancel context.CancelFunc, turn worker.Job) {
	defer cancel()

	w := sse.NewWriter(pw)
	var text strings.Builder

	for {
		switch d.Kind {
		case llm.DeltaText:
			text.WriteString(d.Text)
			if err := w.WriteText(d.Text); err != nil {
				r.logger.Debug("client disconnected mid-stream", "model", turn.Model, "error", err)
				pw.CloseWithError(err)
				return
			}

		case llm.DeltaDone:
			if err := w.WriteDone(); err != nil {
				r.logger.Debug("client disconnected before done", "model", turn.Model, "error", err)
				pw.CloseWithError(err)
				return
			}
			// Enqueue before the body ends so shutdown cannot close the
			// pool between the final frame and the record.
			turn.Response = text.String()
			turn.CompletedAt = time.Now().UTC()
			r.record(turn)
			pw.Close()
			return

		case llm.DeltaError:
			r.logger.Error("upstream stream aborted",
				"model", turn.Model,
				"provider", turn.Provider,
				"error", d.Err,
			)
			pw.CloseWithError(d.Err)
			return
		}

		next, ok := <-deltas
		if !ok {
			// Closed without a terminal delta: the turn context ended.
			pw.CloseWithError(llm.ErrStreamAborted)
			return
		}
		d = next
	}
}

func (r *Relay) record(turn worker.Job) {
	if r.workerPool == nil {
		return
	}
	r.workerPool.Enqueue(turn)
}
