package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/garyjia/trip-approval/internal/domain/entity"
)

const (
	requestsSheet  = "Requests"
	approvalsSheet = "Approvals"
)

var requestHeaders = []string{
	"ID", "Employee", "Destination", "Purpose", "Start", "End", "Cost estimate",
	"Status", "Approver", "Fulfillment", "Report", "Changes", "Updated",
}

var approvalHeaders = []string{"Request ID", "Role", "Actor", "Action", "Comment", "Date"}

// ExportService renders request listings as spreadsheets
type ExportService interface {
	ExportRequests(ctx context.Context, q ListQuery) (*bytes.Buffer, string, error)
}

type exportServiceImpl struct {
	requests RequestService
	logger   Logger
	clock    func() time.Time
}

// NewExportService creates a new ExportService
func NewExportService(requests RequestService, logger Logger) ExportService {
	return &exportServiceImpl{requests: requests, logger: logger, clock: time.Now}
}

// ExportRequests writes the listing and its approval trails to an xlsx workbook
func (s *exportServiceImpl) ExportRequests(ctx context.Context, q ListQuery) (*bytes.Buffer, string, error) {
	views, err := s.requests.List(ctx, q)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(requestsSheet)
	if err != nil {
		return nil, "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if _, err := f.NewSheet(approvalsSheet); err != nil {
		return nil, "", fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	writeHeader(f, requestsSheet, requestHeaders, headerStyle)
	writeHeader(f, approvalsSheet, approvalHeaders, headerStyle)
	f.SetColWidth(requestsSheet, "C", "D", 28)
	f.SetColWidth(requestsSheet, "H", "H", 26)
	f.SetColWidth(approvalsSheet, "E", "E", 40)

	approvalRow := 2
	for i, v := range views {
		r := v.TripRequest
		row := i + 2
		cost, _ := r.CostEstimate.Float64()
		values := []interface{}{
			r.ID, r.EmployeeID, r.Destination, r.Purpose, r.StartDate, r.EndDate, cost,
			r.Status.String(), r.CurrentApproverRole.String(), string(r.FulfillmentStatus),
			r.ReportAdded, len(r.ChangeHistory), r.UpdatedAt.Format(time.RFC3339),
		}
		if err := setRow(f, requestsSheet, row, values); err != nil {
			return nil, "", err
		}

		for _, a := range r.Approvals {
			if err := setRow(f, approvalsSheet, approvalRow, approvalValues(r.ID, a)); err != nil {
				return nil, "", err
			}
			approvalRow++
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("Failed to write export workbook", "error", err)
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}

	tab := string(q.Tab)
	if tab == "" {
		tab = "all"
	}
	filename := fmt.Sprintf("trip_requests_%s_%s.xlsx", tab, s.clock().Format("20060102_150405"))
	s.logger.Info("Requests exported", "count", len(views), "file", filename)
	return buf, filename, nil
}

func approvalValues(requestID int64, a entity.Approval) []interface{} {
	return []interface{}{requestID, a.Role.String(), a.ActorID, string(a.Action), a.Comment, a.Date.Format(time.RFC3339)}
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheet, "A1", last, style)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
