// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	_ "embed"
	"fmt"

	"asdf2deb/internal/config"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

//go:embed userguide.md
var userGuide string

// newDocsCommand creates the `asdf2deb docs` command, which renders the
// embedded user guide in the terminal.
func newDocsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "Show the asdf2deb user guide",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showDocs(cmd.Context(), app)
		},
	}
}

// showDocs renders the user guide with the configured color scheme. The
// guide must stay readable even when the config file is broken, so load
// failures fall back to the automatic scheme instead of erroring.
func showDocs(ctx context.Context, app *App) error {
	stylePath := config.ColorSchemeAuto.String()
	if cfg, err := app.Config.Load(ctx, config.LoadOptions{}); err == nil {
		stylePath = cfg.UI.ColorScheme.String()
	}

	rendered, err := glamour.Render(userGuide, stylePath)
	if err != nil {
		return fmt.Errorf("rendering user guide: %w", err)
	}

	fmt.Fprint(app.stdout, rendered)
	return nil
}
