// Package modelscmder provides the models command, which prints the model
// registry the relay serves.
package modelscmder

import (
	"fmt"
	"os"
	"strconv"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/quill/pkg/cliui"
	"github.com/papercomputeco/quill/pkg/config"
	"github.com/papercomputeco/quill/pkg/llm/provider"
	"github.com/papercomputeco/quill/pkg/models"
	"github.com/papercomputeco/quill/pkg/services"
)

type modelsCommander struct {
	flags        config.FlagSet
	modelCatalog string
	cfg          *config.Config
}

const modelsLongDesc string = `List the models the relay can serve.

The table combines the built-in models with the optional YAML catalog from
models.catalog_path. A model is available when its provider's API key is set
in the environment.`

const modelsShortDesc string = "List available models"

func NewModelsCmd() *cobra.Command {
	cmder := &modelsCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "models",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, cmder.flags, []string{config.FlagModelCatalog})
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := services.NewRegistry(cmder.cfg.Models)
			if err != nil {
				return err
			}

			lipgloss.Fprintln(cmd.OutOrStdout(), renderModels(registry))
			return nil
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagModelCatalog, &cmder.modelCatalog)

	return cmd
}

func renderModels(registry *models.Registry) string {
	defaultID := registry.Default().ID

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(cliui.DimStyle).
		Headers("ID", "NAME", "PROVIDER", "MAX TOKENS", "STREAMING", "AVAILABLE").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return cliui.KeyStyle.Padding(0, 1)
			}
			return cliui.ValueStyle.Padding(0, 1)
		})

	for _, m := range registry.List() {
		id := m.ID
		if id == defaultID {
			id += " *"
		}
		tbl.Row(
			id,
			m.Name,
			m.Provider,
			strconv.Itoa(m.MaxTokens),
			yesNo(m.SupportsStreaming),
			yesNo(os.Getenv(provider.APIKeyEnv(m.Provider)) != ""),
		)
	}

	return tbl.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
