package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dhcgn/mbox-index/cmd"
	"github.com/dhcgn/mbox-index/config"
)

func main() {
	app := &cmd.App{}

	rootCmd := &cobra.Command{
		Use:           "mbox-index",
		Short:         "Drive the mailing list archive indexer and its lookup databases",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			return app.Setup(c)
		},
	}
	config.RegisterFlags(rootCmd)
	rootCmd.AddCommand(
		cmd.NewIndexCommand(app),
		cmd.NewLangCodesCommand(app),
		cmd.NewListsCommand(app),
		cmd.NewMailboxesCommand(app),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = app.Close()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
