package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go-assetlink/internal/features/bulkop"

	"github.com/xuri/excelize/v2"
)

// IngestService turns uploaded spreadsheets into ordered association rows and
// renders a finished operation back out as a spreadsheet.
type IngestService interface {
	ParseFile(ctx context.Context, file io.Reader, filename string) ([]bulkop.AssociationRow, error)
	ExportOperation(ctx context.Context, opID string) (*excelize.File, error)
}

type IngestServiceImpl struct {
	BulkService bulkop.BulkOperationService
}

func NewIngestService(bulkService bulkop.BulkOperationService) IngestService {
	return &IngestServiceImpl{
		BulkService: bulkService,
	}
}

func (s *IngestServiceImpl) ParseFile(ctx context.Context, file io.Reader, filename string) ([]bulkop.AssociationRow, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var records [][]string
	var err error
	switch ext {
	case ".csv":
		records, err = readCSV(file)
	case ".xlsx":
		records, err = readXLSX(file)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
	if err != nil {
		return nil, err
	}

	return rowsFromRecords(records)
}

func readCSV(file io.Reader) ([][]string, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // rows may be ragged
	return reader.ReadAll()
}

func readXLSX(file io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// rowsFromRecords locates the device_id/asset_id columns from the header row
// and maps the remaining rows in order. Blank lines are dropped; everything
// else is preserved as submitted so the validator can judge it.
func rowsFromRecords(records [][]string) ([]bulkop.AssociationRow, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	deviceCol, assetCol := -1, -1
	for i, name := range records[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "device_id", "device":
			deviceCol = i
		case "asset_id", "asset":
			assetCol = i
		}
	}
	if deviceCol < 0 || assetCol < 0 {
		return nil, fmt.Errorf("header must contain device_id and asset_id columns")
	}

	rows := make([]bulkop.AssociationRow, 0, len(records)-1)
	for _, record := range records[1:] {
		var row bulkop.AssociationRow
		if deviceCol < len(record) {
			row.DeviceID = strings.TrimSpace(record[deviceCol])
		}
		if assetCol < len(record) {
			row.AssetID = strings.TrimSpace(record[assetCol])
		}
		if row.DeviceID == "" && row.AssetID == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *IngestServiceImpl) ExportOperation(ctx context.Context, opID string) (*excelize.File, error) {
	op, err := s.BulkService.GetOperation(ctx, opID)
	if err != nil {
		return nil, err
	}
	items, err := s.BulkService.ListItems(ctx, opID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	header := []interface{}{"Row", "Device", "Asset", "Status", "Error", "Previous Asset"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}

	for i, item := range items {
		prevAsset := ""
		if item.PreviousAssetID != nil {
			prevAsset = *item.PreviousAssetID
		}
		row := []interface{}{
			item.RowNumber,
			item.DeviceID,
			item.AssetID,
			string(item.Status),
			item.ErrorMessage,
			prevAsset,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}

	summary := fmt.Sprintf("operation %s: status=%s success=%d errors=%d skipped=%d",
		op.ID.Hex(), op.Status, op.SuccessCount, op.ErrorCount, op.SkippedCount)
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", len(items)+3), &[]interface{}{summary}); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}
