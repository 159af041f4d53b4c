package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/godilite/engagement-dashboard/internal/repository/models"
)

const rowNumColumn = "row_num"

// SQLRepository stores each tab of one sheet as a table holding the raw cell
// grid: a 1-based row number followed by positional text columns c1..cN.
// Ranges therefore address cells exactly as they do in a workbook.
type SQLRepository struct {
	db       *sql.DB
	sourceID string
}

func NewSQLRepository(db *sql.DB, sourceID string) *SQLRepository {
	return &SQLRepository{db: db, sourceID: sourceID}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *SQLRepository) checkSheet(sheetID string) error {
	if sheetID != s.sourceID {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, sheetID)
	}
	return nil
}

func (s *SQLRepository) tableExists(ctx context.Context, tab string) (bool, error) {
	const query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`

	var n int
	if err := s.db.QueryRowContext(ctx, query, tab).Scan(&n); err != nil {
		return false, fmt.Errorf("%w: lookup table %q: %v", ErrSourceReadFails, tab, err)
	}
	return n > 0, nil
}

// ReadTab returns the tab cropped to rng, first row as header.
func (s *SQLRepository) ReadTab(ctx context.Context, sheetID, tab string, rng models.Range) (models.Sheet, error) {
	grid, err := s.ReadGrid(ctx, sheetID, tab)
	if err != nil {
		return models.Sheet{}, err
	}
	cropped, err := rng.Apply(grid)
	if err != nil {
		return models.Sheet{}, err
	}
	return models.SheetFromGrid(cropped), nil
}

// ReadGrid returns the stored cell grid; missing row numbers come back as empty rows.
func (s *SQLRepository) ReadGrid(ctx context.Context, sheetID, tab string) ([][]string, error) {
	if err := s.checkSheet(sheetID); err != nil {
		return nil, err
	}
	ok, err := s.tableExists(ctx, tab)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrTabNotFound, sheetID, tab)
	}

	query := fmt.Sprintf(`SELECT * FROM %s ORDER BY %s`, quoteIdent(tab), rowNumColumn)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query %q: %v", ErrSourceReadFails, tab, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: columns %q: %v", ErrSourceReadFails, tab, err)
	}
	if len(cols) == 0 || cols[0] != rowNumColumn {
		return nil, fmt.Errorf("%w: table %q has no %s column", ErrSourceReadFails, tab, rowNumColumn)
	}

	var grid [][]string
	for rows.Next() {
		var rowNum int
		cells := make([]sql.NullString, len(cols)-1)
		dest := make([]any, 0, len(cols))
		dest = append(dest, &rowNum)
		for i := range cells {
			dest = append(dest, &cells[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: scan %q: %v", ErrSourceReadFails, tab, err)
		}
		if rowNum < 1 {
			continue
		}
		for len(grid) < rowNum-1 {
			grid = append(grid, []string{})
		}
		row := make([]string, len(cells))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		grid = append(grid, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate %q: %v", ErrSourceReadFails, tab, err)
	}
	return grid, nil
}

// WriteTab replaces the tab's table with grid in one transaction.
func (s *SQLRepository) WriteTab(ctx context.Context, sheetID, tab string, grid [][]string) (err error) {
	if err := s.checkSheet(sheetID); err != nil {
		return err
	}
	if strings.TrimSpace(tab) == "" {
		return ErrInvalidTabName
	}

	width := 1
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write %q: %w", tab, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	table := quoteIdent(tab)
	if _, err = tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
		return fmt.Errorf("drop %q: %w", tab, err)
	}

	defs := make([]string, 0, width+1)
	names := make([]string, 0, width+1)
	marks := make([]string, 0, width+1)
	defs = append(defs, rowNumColumn+" INTEGER PRIMARY KEY")
	names = append(names, rowNumColumn)
	marks = append(marks, "?")
	for i := 1; i <= width; i++ {
		col := fmt.Sprintf("c%d", i)
		defs = append(defs, col+" TEXT")
		names = append(names, col)
		marks = append(marks, "?")
	}

	create := fmt.Sprintf(`CREATE TABLE %s (%s)`, table, strings.Join(defs, ", "))
	if _, err = tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create %q: %w", tab, err)
	}

	insert := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, table, strings.Join(names, ", "), strings.Join(marks, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert %q: %w", tab, err)
	}
	defer stmt.Close()

	args := make([]any, width+1)
	for i, row := range grid {
		args[0] = i + 1
		for j := 0; j < width; j++ {
			if j < len(row) {
				args[j+1] = row[j]
			} else {
				args[j+1] = nil
			}
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d into %q: %w", i+1, tab, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %q: %w", tab, err)
	}
	return nil
}

// Tabs lists the stored tables.
func (s *SQLRepository) Tabs(ctx context.Context, sheetID string) ([]string, error) {
	if err := s.checkSheet(sheetID); err != nil {
		return nil, err
	}
	const query = `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list tables: %v", ErrSourceReadFails, err)
	}
	defer rows.Close()

	var tabs []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scan table name: %v", ErrSourceReadFails, err)
		}
		tabs = append(tabs, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tabs, nil
}

// IsNotFound reports whether err means the sheet or tab does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSheetNotFound) || errors.Is(err, ErrTabNotFound)
}
