// Package quillcmder is the root of the quill command tree.
package quillcmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/quill/cmd/quill/chat"
	configcmder "github.com/papercomputeco/quill/cmd/quill/config"
	initcmder "github.com/papercomputeco/quill/cmd/quill/init"
	modelscmder "github.com/papercomputeco/quill/cmd/quill/models"
	pagescmder "github.com/papercomputeco/quill/cmd/quill/pages"
	servecmder "github.com/papercomputeco/quill/cmd/quill/serve"
	tablescmder "github.com/papercomputeco/quill/cmd/quill/tables"
	versioncmder "github.com/papercomputeco/quill/cmd/version"
)

const quillLongDesc string = `Quill is a chat workspace: a streaming relay to Anthropic and OpenAI models,
and pages and tables you can hand to the model as context.

Run services using:
  quill serve          Run the relay and the workspace API together
  quill serve relay    Run the chat relay
  quill serve api      Run the workspace API

Then chat from the terminal:
  quill chat --page <id>`

const quillShortDesc string = "Quill - chat with your workspace"

func NewQuillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "quill",
		Short:        quillShortDesc,
		Long:         quillLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .quill/ config directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(pagescmder.NewPagesCmd())
	cmd.AddCommand(tablescmder.NewTablesCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
