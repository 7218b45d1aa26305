package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
//
// Empty string flags leave the configured value (file, environment or
// default) in place.
type RootOptions struct {
	ConfigFile string
	Database   string
	Project    string
	Actor      string
	Timezone   string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the docsql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "docsql",
		Short: "docsql - SQL over a document store",
		Long:  "Run SQL statements against tables kept as JSON documents in a per-project SQLite store.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (default: ./docsql.yaml or ~/.docsql/docsql.yaml)")
	flags.StringVar(&opts.Database, "db", "", "path to SQLite database")
	flags.StringVar(&opts.Project, "project", "", "project ID")
	flags.StringVar(&opts.Actor, "actor", "", "actor ID statements run as")
	flags.StringVar(&opts.Timezone, "tz", "", "session timezone for NOW() (IANA name)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewReplCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// overrides maps set flags onto config keys.
func (o *RootOptions) overrides() map[string]any {
	out := map[string]any{}
	if o.Database != "" {
		out["database.path"] = o.Database
	}
	if o.Project != "" {
		out["project.id"] = o.Project
	}
	if o.Actor != "" {
		out["project.actor"] = o.Actor
	}
	if o.Timezone != "" {
		out["engine.timezone"] = o.Timezone
	}
	if o.Verbose {
		out["log.level"] = "debug"
	}
	return out
}
