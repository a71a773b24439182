package cli

import (
	"embed"
	"io/fs"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/modsync/pkg/cobrax/topics"
	"github.com/arthur-debert/modsync/pkg/logging"
	"github.com/arthur-debert/modsync/pkg/ui"
)

//go:embed help
var helpFiles embed.FS

// initTopics installs the help command serving the embedded topics
func initTopics(rootCmd *cobra.Command) {
	logger := logging.GetLogger("cli")
	sub, err := fs.Sub(helpFiles, "help")
	if err != nil {
		logger.Warn().Err(err).Msg("Help topics unavailable")
		return
	}

	var renderer topics.Renderer = &topics.PlainRenderer{}
	if ui.IsTerminal(os.Stdout) {
		renderer = topics.NewGlamourRenderer()
	}

	if _, err := topics.Initialize(rootCmd, afero.FromIOFS{FS: sub}, ".", topics.Options{Renderer: renderer}); err != nil {
		logger.Warn().Err(err).Msg("Help topics unavailable")
	}
}
