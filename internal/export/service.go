package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/memoria-cultural/memoria/internal/persist"
)

// Service is a tiny façade over the task store that produces XLSX bytes for
// persistence reports.
type Service struct {
	store  persist.TaskStore
	logger *slog.Logger
}

func NewService(store persist.TaskStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// ExportTaskXLSX returns an XLSX workbook (as bytes) summarizing the item
// results of one persistence task.
func (s *Service) ExportTaskXLSX(ctx context.Context, taskID string) ([]byte, error) {
	start := time.Now()

	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Resultados"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Item",
		"Situação",
		"Mensagem",
		"URI",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range task.Results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.ItemTitle)
		write(2, string(r.Status))
		write(3, truncate(r.Message, 200))
		write(4, r.URI)
		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 40) // title
	_ = f.SetColWidth(sheet, "B", "B", 14) // status
	_ = f.SetColWidth(sheet, "C", "C", 60) // message
	_ = f.SetColWidth(sheet, "D", "D", 60) // uri

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"task_id", taskID,
		"rows", len(task.Results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
