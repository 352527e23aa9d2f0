package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"hakayat/internal/cli/scheme/colours"
	"hakayat/internal/config"
	"hakayat/internal/story/nest"
)

func main() {
	if err := config.Init(); err != nil {
		colours.Error.Printf("❌ Failed to read config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()
	setupLogging(cfg.Log.Level)

	app := nest.NewApp(cfg)

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		app.Close()
		fmt.Println("\n" + colours.Warning.Sprint("👋 Goodbye! Sweet dreams! 🌙"))
		os.Exit(0)
	}()

	var verbose bool
	rootCmd := &cobra.Command{
		Use:   "hakayat",
		Short: "🌙 Stories written and read aloud",
		Long: `
┌─────────────────────────────────────┐
│  📚 Welcome to Hakayat! 🌙          │
│  Stories written and read aloud     │
└─────────────────────────────────────┘

Hakayat writes stories for any age, keeps them in your library and reads
them aloud while following along page by page.
		`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowWelcome()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Enable debug logging")

	app.AddCommands(rootCmd)

	err := rootCmd.Execute()
	app.Close()
	if err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithField("level", level).Warn("Unknown log level, using warn")
		lvl = logrus.WarnLevel
	}
	logrus.SetLevel(lvl)
}
