package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/docsql/internal/store"
)

// TableSchema is one table as printed by the schema command.
type TableSchema struct {
	Name        string             `json:"name"`
	Columns     []store.Column     `json:"columns"`
	Constraints []ConstraintSchema `json:"constraints"`
}

// ConstraintSchema is a constraint with the referenced table named.
type ConstraintSchema struct {
	Type       store.ConstraintType `json:"type"`
	Columns    []string             `json:"columns"`
	RefTable   string               `json:"ref_table,omitempty"`
	RefColumns []string             `json:"ref_columns,omitempty"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema [table]",
		Short: "Show tables, columns and constraints",
		Long: `Show the project's tables with their columns and key constraints.

With a table name only that table is shown.

Examples:
  docsql schema
  docsql schema orders --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			only := ""
			if len(args) == 1 {
				only = args[0]
			}
			schemas, err := loadSchema(cmd.Context(), e, only)
			if err != nil {
				return err
			}

			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if rootOpts.Format == "json" {
				return f.Success(schemas)
			}
			renderSchema(cmd.OutOrStdout(), schemas)
			return nil
		},
	}
}

// loadSchema reads table metadata from the store. only, when set, picks a
// single table by case-insensitive name.
func loadSchema(ctx context.Context, e *env, only string) ([]TableSchema, error) {
	scope := e.sess.Scope()

	tables, err := e.store.ListTables(ctx, scope)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to list tables", err)
	}
	names := make(map[string]string, len(tables))
	for _, t := range tables {
		names[t.ID] = t.Name
	}

	schemas := []TableSchema{}
	for _, t := range tables {
		if only != "" && !strings.EqualFold(t.Name, only) {
			continue
		}
		columns, err := e.store.ListColumns(ctx, scope, t.ID)
		if err != nil {
			return nil, WrapExitError(ExitFailure, "failed to list columns", err)
		}
		constraints, err := e.store.ListConstraints(ctx, scope, t.ID)
		if err != nil {
			return nil, WrapExitError(ExitFailure, "failed to list constraints", err)
		}

		ts := TableSchema{Name: t.Name, Columns: columns, Constraints: []ConstraintSchema{}}
		for _, c := range constraints {
			ts.Constraints = append(ts.Constraints, ConstraintSchema{
				Type:       c.Type,
				Columns:    c.Columns,
				RefTable:   names[c.RefTableID],
				RefColumns: c.RefColumns,
			})
		}
		schemas = append(schemas, ts)
	}

	if only != "" && len(schemas) == 0 {
		return nil, NewExitError(ExitFailure, fmt.Sprintf("table '%s' does not exist", only))
	}
	return schemas, nil
}

func renderSchema(w io.Writer, schemas []TableSchema) {
	if len(schemas) == 0 {
		fmt.Fprintln(w, "No tables.")
		return
	}

	for i, ts := range schemas {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Table %s\n", ts.Name)

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"column", "type", "nullable", "default", "key"})
		for _, c := range ts.Columns {
			key := ""
			if c.PrimaryKey {
				key = "PK"
			}
			t.AppendRow(table.Row{c.Name, string(c.Type), yesNo(c.Nullable), c.Default, key})
		}
		t.Render()

		for _, c := range ts.Constraints {
			line := fmt.Sprintf("  %s (%s)", c.Type, strings.Join(c.Columns, ", "))
			if c.Type == store.ForeignKey {
				line += fmt.Sprintf(" REFERENCES %s (%s)", c.RefTable, strings.Join(c.RefColumns, ", "))
			}
			fmt.Fprintln(w, line)
		}
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
