package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"portfolio-contact-backend/internal/domain"

	"github.com/xuri/excelize/v2"
)

const submissionsSheet = "Submissions"

var exportColumns = []string{"ID", "CREATED AT", "NAME", "EMAIL", "MESSAGE", "CLIENT IP", "USER AGENT"}

// ExportUsecase produces operator downloads of stored submissions.
type ExportUsecase struct {
	store domain.SubmissionStore
}

func NewExportUsecase(store domain.SubmissionStore) *ExportUsecase {
	return &ExportUsecase{store: store}
}

// Export lists submissions newest first and renders them as xlsx or csv.
// It returns the file content and a suggested file name.
func (u *ExportUsecase) Export(ctx context.Context, format string, opts domain.ListOptions) ([]byte, string, error) {
	if u.store == nil {
		return nil, "", fmt.Errorf("store not initialized: %w", domain.ErrServiceUnavailable)
	}
	records, err := u.store.List(ctx, opts)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list submissions: %w", err)
	}

	switch format {
	case "xlsx", "":
		return exportExcel(records)
	case "csv":
		return exportCSV(records)
	default:
		return nil, "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func exportRow(rec *domain.SubmissionRecord) []interface{} {
	return []interface{}{
		rec.ID,
		rec.CreatedAt.UTC().Format(time.RFC3339),
		rec.Name,
		rec.Email,
		rec.Message,
		rec.ClientIP,
		rec.ClientUserAgent,
	}
}

func exportExcel(records []*domain.SubmissionRecord) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", submissionsSheet); err != nil {
		return nil, "", err
	}

	for i, header := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(submissionsSheet, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1E3A5F"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
	_ = f.SetCellStyle(submissionsSheet, "A1", endCell, headerStyle)

	for rowIdx, rec := range records {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		row := exportRow(rec)
		if err := f.SetSheetRow(submissionsSheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("failed to write row %d: %w", rowIdx+2, err)
		}
	}

	_ = f.SetColWidth(submissionsSheet, "A", "D", 24)
	_ = f.SetColWidth(submissionsSheet, "E", "E", 60)
	_ = f.SetColWidth(submissionsSheet, "F", "G", 24)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), exportFilename("xlsx"), nil
}

func exportCSV(records []*domain.SubmissionRecord) ([]byte, string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportColumns); err != nil {
		return nil, "", err
	}
	for _, rec := range records {
		row := exportRow(rec)
		line := make([]string, len(row))
		for i, v := range row {
			line[i] = fmt.Sprint(v)
		}
		if err := w.Write(line); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), exportFilename("csv"), nil
}

func exportFilename(ext string) string {
	return fmt.Sprintf("contact_submissions_%s.%s", time.Now().Format("20060102_150405"), ext)
}
