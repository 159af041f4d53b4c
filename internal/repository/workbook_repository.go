package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/godilite/engagement-dashboard/internal/repository/models"
)

const workbookExt = ".xlsx"

// WorkbookRepository reads tabs from xlsx workbooks in a directory. A sheet id
// names the workbook file without its extension.
type WorkbookRepository struct {
	dir string
}

func NewWorkbookRepository(dir string) *WorkbookRepository {
	return &WorkbookRepository{dir: dir}
}

func (r *WorkbookRepository) path(sheetID string) (string, error) {
	if sheetID == "" || filepath.Base(sheetID) != sheetID || strings.HasPrefix(sheetID, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidSheetID, sheetID)
	}
	return filepath.Join(r.dir, sheetID+workbookExt), nil
}

func (r *WorkbookRepository) open(ctx context.Context, sheetID string) (*excelize.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := r.path(sheetID)
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheetID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrSourceReadFails, path, err)
	}
	return f, nil
}

// ReadTab returns the tab cropped to rng, first row as header.
func (r *WorkbookRepository) ReadTab(ctx context.Context, sheetID, tab string, rng models.Range) (models.Sheet, error) {
	f, err := r.open(ctx, sheetID)
	if err != nil {
		return models.Sheet{}, err
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(tab)
	if err != nil || idx < 0 {
		return models.Sheet{}, fmt.Errorf("%w: %s/%s", ErrTabNotFound, sheetID, tab)
	}

	grid, err := f.GetRows(tab)
	if err != nil {
		return models.Sheet{}, fmt.Errorf("%w: read %s/%s: %v", ErrSourceReadFails, sheetID, tab, err)
	}

	cropped, err := rng.Apply(grid)
	if err != nil {
		return models.Sheet{}, err
	}
	return models.SheetFromGrid(cropped), nil
}

// Tabs lists the workbook's tab names in order.
func (r *WorkbookRepository) Tabs(ctx context.Context, sheetID string) ([]string, error) {
	f, err := r.open(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// ReadGrid returns the raw cell grid of a tab, used when copying a workbook
// into another source.
func (r *WorkbookRepository) ReadGrid(ctx context.Context, sheetID, tab string) ([][]string, error) {
	f, err := r.open(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	grid, err := f.GetRows(tab)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrTabNotFound, sheetID, tab)
	}
	return grid, nil
}
