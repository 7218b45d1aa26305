package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

const (
	replPrompt     = "docsql> "
	replContPrompt = "     -> "
)

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	var explain bool

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive SQL shell",
		Long: `Start an interactive shell on the configured project.

Statements end with ';' and may span lines. Backslash commands run
immediately:
  \q        quit
  \d        list tables
  \d NAME   describe a table
  \explain  toggle explanation traces
  \?        help`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			r := newREPL(cmd, e, rootOpts.Format, explain)
			if cmd.InOrStdin() != os.Stdin || !readline.DefaultIsTerminal() {
				return r.run(cmd.Context(), newScanReader(cmd.InOrStdin()))
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          replPrompt,
				HistoryFile:     historyFile(),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				AutoComplete:    newCompleter(),
				Stdout:          cmd.OutOrStdout(),
			})
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to initialize readline", err)
			}
			defer rl.Close()

			fmt.Fprintf(r.out, "docsql shell on project '%s' as %s. Type \\? for help.\n", e.cfg.Project.ID, e.cfg.Project.Actor)
			return r.run(cmd.Context(), rl)
		},
	}

	cmd.Flags().BoolVar(&explain, "explain", false, "print explanation traces for SELECT")
	return cmd
}

// lineReader is the part of *readline.Instance the loop needs.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

type repl struct {
	env     *env
	out     io.Writer
	format  *OutputFormatter
	explain bool
	pending strings.Builder
}

func newREPL(cmd *cobra.Command, e *env, format string, explain bool) *repl {
	out := cmd.OutOrStdout()
	return &repl{
		env:     e,
		out:     out,
		format:  &OutputFormatter{Format: format, Writer: out, ErrWriter: cmd.ErrOrStderr()},
		explain: explain,
	}
}

// run reads lines until \q or EOF. Statement errors are printed and the
// loop continues.
func (r *repl) run(ctx context.Context, in lineReader) error {
	for {
		if r.pending.Len() > 0 {
			in.SetPrompt(replContPrompt)
		} else {
			in.SetPrompt(replPrompt)
		}

		line, err := in.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if r.pending.Len() > 0 {
				r.pending.Reset()
				fmt.Fprintln(r.out, "^C")
			}
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(r.out, "Goodbye!")
			return nil
		case err != nil:
			return fmt.Errorf("readline error: %w", err)
		}

		if quit := r.feed(ctx, line); quit {
			fmt.Fprintln(r.out, "Goodbye!")
			return nil
		}
	}
}

// feed handles one input line and reports whether the shell should exit.
func (r *repl) feed(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if r.pending.Len() == 0 && strings.HasPrefix(line, `\`) {
		return r.backslash(ctx, line)
	}

	if r.pending.Len() > 0 {
		r.pending.WriteString("\n")
	}
	r.pending.WriteString(line)
	if !strings.HasSuffix(line, ";") {
		return false
	}

	sql := r.pending.String()
	r.pending.Reset()
	r.execute(ctx, sql)
	return false
}

func (r *repl) execute(ctx context.Context, sql string) {
	results, err := r.env.execute(ctx, sql)
	if outErr := r.format.Results(results, r.explain); outErr != nil {
		r.env.logger.Error("failed to print results", "error", outErr)
	}
	if err != nil {
		r.format.Error(errorCode(err), err.Error(), nil)
	}
}

func (r *repl) backslash(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case `\q`, `\quit`, `\exit`:
		return true
	case `\?`, `\help`:
		r.printHelp()
	case `\explain`:
		r.explain = !r.explain
		fmt.Fprintf(r.out, "Explanation traces %s.\n", onOff(r.explain))
	case `\d`, `\dt`:
		only := ""
		if len(parts) > 1 {
			only = parts[1]
		}
		schemas, err := loadSchema(ctx, r.env, only)
		if err != nil {
			fmt.Fprintf(r.out, "Error: %v\n", err)
			return false
		}
		if only == "" {
			r.listTables(schemas)
			return false
		}
		renderSchema(r.out, schemas)
	default:
		fmt.Fprintf(r.out, "Unknown command: %s\n", parts[0])
		fmt.Fprintln(r.out, `Type \? for available commands`)
	}
	return false
}

func (r *repl) listTables(schemas []TableSchema) {
	if len(schemas) == 0 {
		fmt.Fprintln(r.out, "No tables.")
		return
	}
	for _, ts := range schemas {
		fmt.Fprintf(r.out, "%s (%d columns)\n", ts.Name, len(ts.Columns))
	}
}

func (r *repl) printHelp() {
	fmt.Fprintln(r.out, `Statements end with ';' and may span lines.
  \q        quit
  \d        list tables
  \d NAME   describe a table
  \explain  toggle explanation traces
  \?        this help`)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// historyFile returns ~/.docsql_history, or "" when there is no home.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".docsql_history")
}

func newCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("SELECT"),
		readline.PcItem("INSERT INTO"),
		readline.PcItem("UPDATE"),
		readline.PcItem("DELETE FROM"),
		readline.PcItem("CREATE TABLE"),
		readline.PcItem("DROP TABLE"),
		readline.PcItem("ALTER TABLE"),
		readline.PcItem("CALL GENERATE_DATA"),
		readline.PcItem(`\q`),
		readline.PcItem(`\d`),
		readline.PcItem(`\explain`),
		readline.PcItem(`\?`),
	)
}

// scanReader reads piped, non-terminal input line by line.
type scanReader struct {
	sc *bufio.Scanner
}

func newScanReader(in io.Reader) *scanReader {
	return &scanReader{sc: bufio.NewScanner(in)}
}

func (s *scanReader) Readline() (string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.sc.Text(), nil
}

func (s *scanReader) SetPrompt(string) {}
