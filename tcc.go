package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tcc",
		Short:         "Compile trading card packs into a card database, card images and scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCompileCmd(), newWatchCmd())
	return root
}

func newCompileCmd() *cobra.Command {
	var flags cmd_flags
	cmd := &cobra.Command{
		Use:   "compile <set.toml>",
		Short: "Compile every pack of a card set once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context(), args[0], cmd.Flags(), flags)
			if err != nil {
				return err
			}
			defer app.Close()

			rep, err := app.compile(cmd.Context())
			if err != nil {
				app.logger.Error("compile failed", zap.Error(err))
				return err
			}
			printReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	initCmdFlags(cmd.Flags(), &flags)
	return cmd
}

func newWatchCmd() *cobra.Command {
	var flags cmd_flags
	cmd := &cobra.Command{
		Use:   "watch <set.toml>",
		Short: "Compile a card set, then recompile whenever its sources change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd.Context(), args[0], cmd.Flags(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.watch(cmd.Context(), cmd.OutOrStdout())
		},
	}
	initCmdFlags(cmd.Flags(), &flags)
	return cmd
}
