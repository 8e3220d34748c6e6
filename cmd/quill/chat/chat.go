// Package chatcmder provides the chat command for interactive LLM chat
// through the quill relay.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/pkg/apiclient"
	"github.com/papercomputeco/quill/pkg/chatclient"
	"github.com/papercomputeco/quill/pkg/cliui"
	"github.com/papercomputeco/quill/pkg/config"
	"github.com/papercomputeco/quill/pkg/dotdir"
	"github.com/papercomputeco/quill/pkg/llm"
	"github.com/papercomputeco/quill/pkg/logger"
	"github.com/papercomputeco/quill/pkg/workspace"
)

const historyFile = "chat_history"

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

type chatCommander struct {
	flags config.FlagSet

	relayTarget string
	apiTarget   string
	model       string
	pages       []string
	tables      []string
	resume      bool
	markdown    bool

	configDir string
	cfg       *config.Config
	debug     bool
	logger    *slog.Logger

	in  io.Reader
	out io.Writer
}

var chatFlags = []string{
	config.FlagRelayTarget,
	config.FlagAPITarget,
	config.FlagModel,
}

const chatLongDesc string = `Start an interactive chat session through the quill relay.

Replies stream in as the model writes them. Pages and tables from the
workspace can be attached as context with --page and --table; their text is
fetched from the quill API and sent with every turn.

The conversation is saved to .quill/session.json after each reply, and
--resume picks it back up. Type /exit or press Ctrl+D to quit.

Examples:
  quill chat
  quill chat --model gpt-4o
  quill chat --page 6f1c... --table 9a2e...
  quill chat --resume`

const chatShortDesc string = "Interactive LLM chat through the quill relay"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, cmder.flags, chatFlags)
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagRelayTarget, &cmder.relayTarget)
	config.AddStringFlag(cmd, cmder.flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, cmder.flags, config.FlagModel, &cmder.model)
	cmd.Flags().StringSliceVar(&cmder.pages, "page", nil, "Page id to attach as context (repeatable)")
	cmd.Flags().StringSliceVar(&cmder.tables, "table", nil, "Table id to attach as context (repeatable)")
	cmd.Flags().BoolVar(&cmder.resume, "resume", false, "Resume the last saved conversation")
	cmd.Flags().BoolVar(&cmder.markdown, "markdown", false, "Re-render each finished reply as markdown")

	return cmd
}

func (c *chatCommander) run(ctx context.Context) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithWriter(os.Stderr), logger.WithComponent("chat"))

	ddm := dotdir.NewManager()
	conv := chatclient.New(chatclient.Config{
		Target:   c.cfg.Client.RelayTarget,
		Model:    c.cfg.Client.Model,
		OnUpdate: newStreamPrinter(c.out),
	})

	fmt.Fprintln(c.out)
	if err := c.restoreSession(ddm, conv); err != nil {
		return err
	}
	if err := c.attachContext(ctx, conv); err != nil {
		return err
	}

	lipgloss.Fprintf(c.out, "  %s %s\n\n",
		cliui.KeyStyle.Render("Model:"),
		cliui.NameStyle.Render(c.cfg.Client.Model),
	)
	lipgloss.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	prompt, closePrompt := c.newPrompter(ddm)
	defer closePrompt()

	for {
		input, err := prompt()
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		lipgloss.Fprint(c.out, assistantPrompt)
		reply, err := c.send(ctx, conv, input)
		fmt.Fprintln(c.out)

		switch {
		case errors.Is(err, chatclient.ErrIncompleteStream):
			lipgloss.Fprintf(c.out, "  %s %s\n", cliui.FailMark, cliui.DimStyle.Render("reply was cut off"))
		case err != nil:
			c.logger.Debug("chat request failed", "error", err)
			lipgloss.Fprintf(c.out, "  %s %v\n", cliui.FailMark, err)
		case c.markdown:
			c.printMarkdown(reply.Content)
		}
		fmt.Fprintln(c.out)

		if err := saveSession(ddm, c.configDir, c.cfg.Client.Model, conv.Messages()); err != nil {
			c.logger.Warn("could not save session", "error", err)
		}
	}

	fmt.Fprintln(c.out)
	return nil
}

// send runs one turn. Ctrl+C cancels the turn but not the REPL.
func (c *chatCommander) send(ctx context.Context, conv *chatclient.Conversation, input string) (llm.ChatMessage, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	c.logger.Debug("sending chat request",
		"relay_target", c.cfg.Client.RelayTarget,
		"model", c.cfg.Client.Model,
		"message_count", len(conv.Messages())+1,
	)
	return conv.Send(ctx, input)
}

func (c *chatCommander) restoreSession(ddm *dotdir.Manager, conv *chatclient.Conversation) error {
	if !c.resume {
		lipgloss.Fprintf(c.out, "  %s New conversation\n", cliui.DimStyle.Render("●"))
		return nil
	}

	session, err := ddm.LoadSession(c.configDir)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if session == nil || len(session.Messages) == 0 {
		lipgloss.Fprintf(c.out, "  %s No saved conversation, starting fresh\n", cliui.DimStyle.Render("●"))
		return nil
	}

	msgs := make([]llm.ChatMessage, 0, len(session.Messages))
	for _, m := range session.Messages {
		msgs = append(msgs, llm.ChatMessage{
			ID:      workspace.NewID(),
			Role:    m.Role,
			Content: m.Content,
		})
	}
	conv.SetMessages(msgs)

	lipgloss.Fprintf(c.out, "  %s Resuming conversation %s\n",
		cliui.SuccessMark,
		cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(msgs))),
	)
	return nil
}

func (c *chatCommander) attachContext(ctx context.Context, conv *chatclient.Conversation) error {
	if len(c.pages) == 0 && len(c.tables) == 0 {
		return nil
	}

	refs := make([]workspace.ContextRef, 0, len(c.pages)+len(c.tables))
	for _, id := range c.pages {
		refs = append(refs, workspace.ContextRef{Type: workspace.RefPage, ID: id})
	}
	for _, id := range c.tables {
		refs = append(refs, workspace.ContextRef{Type: workspace.RefTable, ID: id})
	}

	client := apiclient.New(c.cfg.Client.APITarget)
	var text string
	err := cliui.Step(c.out, fmt.Sprintf("Loading %d context item(s)", len(refs)), func() error {
		var err error
		text, err = client.BuildContext(ctx, refs)
		return err
	})
	if err != nil {
		return fmt.Errorf("building context: %w", err)
	}

	conv.SetContext(text)
	return nil
}

func (c *chatCommander) printMarkdown(content string) {
	if content == "" || !cliui.SupportsColor(c.out) {
		return
	}
	rendered, err := cliui.RenderMarkdown(content)
	if err != nil {
		c.logger.Debug("markdown render failed", "error", err)
		return
	}
	fmt.Fprint(c.out, rendered)
}

// newPrompter returns a line reader. A terminal gets liner editing with
// persistent history, anything else is read line by line.
func (c *chatCommander) newPrompter(ddm *dotdir.Manager) (func() (string, error), func()) {
	if c.in != os.Stdin || !cliui.IsInteractive() {
		scanner := bufio.NewScanner(c.in)
		return func() (string, error) {
			lipgloss.Fprint(c.out, userPrompt)
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return "", err
				}
				return "", io.EOF
			}
			return scanner.Text(), nil
		}, func() {}
	}

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyPath, err := ddm.Path(c.configDir, historyFile)
	if err != nil {
		c.logger.Warn("chat history disabled", "error", err)
	} else if f, err := os.Open(historyPath); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	prompt := func() (string, error) {
		input, err := line.Prompt("you> ")
		if err == nil && strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		return input, err
	}

	closer := func() {
		if historyPath != "" {
			if f, err := os.Create(historyPath); err == nil {
				_, _ = line.WriteHistory(f)
				f.Close()
			}
		}
		line.Close()
	}
	return prompt, closer
}

// newStreamPrinter prints only the part of each update that has not been
// written yet.
func newStreamPrinter(w io.Writer) func(messageID, content string) {
	var (
		current string
		printed int
	)
	return func(messageID, content string) {
		if messageID != current {
			current = messageID
			printed = 0
		}
		if len(content) > printed {
			fmt.Fprint(w, content[printed:])
			printed = len(content)
		}
	}
}

func saveSession(ddm *dotdir.Manager, configDir, model string, msgs []llm.ChatMessage) error {
	state := &dotdir.SessionState{Model: model}
	for _, m := range msgs {
		state.Messages = append(state.Messages, dotdir.SessionMessage{Role: m.Role, Content: m.Content})
	}
	return ddm.SaveSession(state, configDir)
}
