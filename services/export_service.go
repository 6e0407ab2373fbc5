package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"

	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/internal/logger"
	"github.com/wildanmujjahid29/PDS-Chatbot-Layanan-Publik/models"
)

// chatExportRow is one history row joined with its session, flattened for
// the spreadsheet.
type chatExportRow struct {
	SessionID string    `db:"session_id"`
	Role      string    `db:"role"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

// ExportService builds xlsx downloads of the service catalog and the chat
// history for back-office reporting.
type ExportService struct {
	db *sqlx.DB
}

func NewExportService(db *sqlx.DB) *ExportService {
	return &ExportService{db: db}
}

// ExportServicesExcel renders the full catalog as a spreadsheet and returns
// the file bytes plus the row count.
func (s *ExportService) ExportServicesExcel(ctx context.Context) ([]byte, int, error) {
	var records []models.ServiceRecord
	err := s.db.SelectContext(ctx, &records,
		`SELECT `+serviceColumns+` FROM services ORDER BY created_at DESC`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch services: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close excel file", "error", err)
		}
	}()

	sheetName := "Layanan"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"ID", "Jenis Instansi", "Nama Layanan", "Deskripsi Singkat", "Instansi Penyelenggara",
		"Persyaratan", "Waktu Penyelesaian", "Tarif Pelayanan", "Prosedur", "Produk Layanan",
		"Pengaduan", "Dasar Hukum", "Created At",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	deref := func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	}

	for rowIdx, record := range records {
		createdAt := ""
		if record.CreatedAt != nil {
			createdAt = record.CreatedAt.Format("2006-01-02 15:04:05")
		}
		values := []interface{}{
			record.ID,
			deref(record.JenisInstansi),
			deref(record.NamaLayanan),
			deref(record.DeskripsiSingkat),
			deref(record.InstansiPenyelenggara),
			deref(record.Persyaratan),
			deref(record.WaktuPenyelesaian),
			deref(record.TarifPelayanan),
			deref(record.Prosedur),
			deref(record.ProdukLayanan),
			deref(record.Pengaduan),
			deref(record.DasarHukum),
			createdAt,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 20)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, 0, fmt.Errorf("failed to write excel file: %w", err)
	}
	return buf.Bytes(), len(records), nil
}

// ExportChatHistoryExcel renders the chat history as a spreadsheet, one
// message per row, with a summary sheet. Optional date bounds filter on
// message time; zero values mean unbounded.
func (s *ExportService) ExportChatHistoryExcel(ctx context.Context, from, to time.Time) ([]byte, int, error) {
	query := `SELECT h.session_id, h.role, h.message, h.created_at
		FROM chat_history h WHERE ($1::timestamptz IS NULL OR h.created_at >= $1)
		AND ($2::timestamptz IS NULL OR h.created_at <= $2)
		ORDER BY h.session_id, h.created_at`

	var fromArg, toArg interface{}
	if !from.IsZero() {
		fromArg = from
	}
	if !to.IsZero() {
		toArg = to
	}

	var rows []chatExportRow
	if err := s.db.SelectContext(ctx, &rows, query, fromArg, toArg); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch chat history: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("failed to close excel file", "error", err)
		}
	}()

	sheetName := "Chat History"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Session ID", "Role", "Message", "Timestamp"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	sessions := make(map[string]bool)
	for rowIdx, row := range rows {
		sessions[row.SessionID] = true
		values := []interface{}{
			row.SessionID, row.Role, row.Message,
			row.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}
	f.SetColWidth(sheetName, "A", "A", 38)
	f.SetColWidth(sheetName, "C", "C", 80)

	summarySheet := "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, 0, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	summaryData := [][]interface{}{
		{"Export Date", time.Now().Format("2006-01-02 15:04:05")},
		{"Total Messages", len(rows)},
		{"Total Sessions", len(sessions)},
	}
	for i, row := range summaryData {
		for j, cell := range row {
			ref, _ := excelize.CoordinatesToCellName(j+1, i+1)
			f.SetCellValue(summarySheet, ref, cell)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, 0, fmt.Errorf("failed to write excel file: %w", err)
	}
	return buf.Bytes(), len(rows), nil
}
