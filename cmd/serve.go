package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"editorial_composer/internal/app"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor web UI and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		application, err := app.NewApp(cfg)
		if err != nil {
			return err
		}
		defer application.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return application.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Override server.port")
	serveCmd.PreRun = func(cmd *cobra.Command, args []string) {
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			os.Setenv("PORT", port)
		}
	}
}
