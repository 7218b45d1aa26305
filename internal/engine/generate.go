package engine

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/docsql/internal/row"
	"github.com/roach88/docsql/internal/store"
)

// maxGeneratedRows bounds one CALL GENERATE_DATA.
const maxGeneratedRows = 10_000

// generateDataPattern recognizes CALL GENERATE_DATA('table', count). The
// command is matched on raw text; the SQL parsers never see it.
var generateDataPattern = regexp.MustCompile(`(?is)^\s*CALL\s+GENERATE_DATA\s*\(\s*['"` + "`" + `]?([A-Za-z_][A-Za-z0-9_]*)['"` + "`" + `]?\s*,\s*(\d+)\s*\)\s*;?\s*$`)

var generatedNames = []string{
	"Alice", "Bob", "Carol", "Dave", "Eve", "Frank", "Grace", "Heidi",
	"Ivan", "Judy", "Mallory", "Niaj", "Olivia", "Peggy", "Rupert", "Sybil",
	"Trent", "Uma", "Victor", "Wendy",
}

type generateMatch struct {
	table string
	count int
}

// matchGenerateData returns the parsed command, or nil when sql is not a
// GENERATE_DATA call.
func matchGenerateData(sql string) *generateMatch {
	m := generateDataPattern.FindStringSubmatch(sql)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		n = math.MaxInt
	}
	return &generateMatch{table: m[1], count: n}
}

// generateData synthesizes rows for every column of the table from its
// declared type and name, and inserts them in batches of
// store.MaxBatchSize. Integer columns continue from the current row count.
// Batches already written stay written when a later one fails.
func (r *run) generateData(m *generateMatch) (*Result, error) {
	if m.count > maxGeneratedRows {
		return nil, newQueryError(ErrCodeInvalidArgument, "GENERATE_DATA count %d exceeds the limit of %d", m.count, maxGeneratedRows)
	}
	table, err := r.lookupTable(m.table)
	if err != nil {
		return nil, err
	}
	columns, err := r.repo.ListColumns(r.ctx, r.sess.Scope(), table.ID)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table.Name, err)
	}
	existing, err := r.tableRows(table)
	if err != nil {
		return nil, err
	}

	offset := len(existing)
	written := 0
	for written < m.count {
		n := min(store.MaxBatchSize, m.count-written)
		batch := make([]*row.Row, n)
		for i := range batch {
			batch[i] = r.generateRow(columns, offset+written+i+1)
		}
		ids, err := r.repo.InsertRows(r.ctx, r.sess.Scope(), table.ID, batch)
		written += len(ids)
		r.metrics.AddRowsWritten(kindCall, len(ids))
		if err != nil {
			r.invalidate(table.ID)
			return nil, fmt.Errorf("generate data for %s after %d rows: %w", table.Name, written, err)
		}
		r.logger.Debug("generated batch", "table", table.Name, "rows", len(ids), "total", written)
	}
	r.invalidate(table.ID)
	return messageResult("%d rows generated for table '%s'.", written, table.Name), nil
}

// generateRow builds the seq-th generated row (1-based across the table).
func (r *run) generateRow(columns []store.Column, seq int) *row.Row {
	rw := row.New()
	for _, c := range columns {
		rw.Set(c.Name, r.generateValue(c, seq))
	}
	return rw
}

func (r *run) generateValue(c store.Column, seq int) any {
	switch c.Type {
	case store.TypeInt:
		return float64(seq)
	case store.TypeFloat:
		return math.Round(r.rand.Float64()*100000) / 100
	case store.TypeBoolean:
		return seq%2 == 1
	case store.TypeDate:
		return r.backdated().Format(dateLayout)
	case store.TypeTimestamp:
		return r.backdated().UTC().Format(utcTimestampLayout)
	}

	name := strings.ToLower(c.Name)
	switch {
	case name == "id":
		return r.pseudoUUID()
	case strings.Contains(name, "email"):
		return fmt.Sprintf("user%d@example.com", seq)
	case strings.Contains(name, "name"):
		return generatedNames[r.rand.IntN(len(generatedNames))]
	default:
		return fmt.Sprintf("%s_%d", c.Name, seq)
	}
}

// backdated returns a random instant within the year before now.
func (r *run) backdated() time.Time {
	return r.clock.Now().Add(-time.Duration(r.rand.IntN(365*24*60)) * time.Minute)
}
