package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/hatlonely/schemagraph/app"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

func newRootCommand() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "schemagraph",
		Short:         "Schema graph consistency and cascade engine",
		Long:          "Maintains tables, columns, constraints, indexes and relationships of a database design and keeps them consistent across cascading edits.",
		Version:       Version + " (" + GitCommit + ")",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file, environment variables prefixed with SCHEMAGRAPH_ override it")

	// withApp 加载配置并组装 App，命令结束时关闭
	withApp := func(fn func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			options, err := app.Load(configFile)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), options)
			if err != nil {
				return err
			}
			err = fn(cmd.Context(), a, cmd, args)
			if cerr := a.Close(); cerr != nil && err == nil {
				err = cerr
			}
			return err
		}
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the entity tables",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			if err := a.Store.Migrate(ctx); err != nil {
				return err
			}
			cmd.Println("migrate done")
			return nil
		}),
	}

	applyCmd := &cobra.Command{
		Use:   "apply [script.yaml]",
		Short: "Run a scripted sequence of operations",
		Long:  "Each step names an operation and its arguments. Values saved from earlier results can be referenced as ${name}.",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			script, err := app.LoadScript(args[0])
			if err != nil {
				return err
			}
			results, err := app.Run(ctx, a.Service, script)
			if werr := writeJSON(cmd.OutOrStdout(), results); werr != nil && err == nil {
				err = werr
			}
			return err
		}),
	}

	checkCmd := &cobra.Command{
		Use:   "check [schema-id]",
		Short: "Check a schema for cycles and broken references",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			report, err := a.Service.CheckSchema(ctx, args[0])
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.OK() {
				return errors.Errorf("schema [%s] is inconsistent", args[0])
			}
			return nil
		}),
	}

	rootCmd.AddCommand(migrateCmd, applyCmd, checkCmd)
	return rootCmd
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(v), "encode output failed")
}
