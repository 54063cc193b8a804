// Package export renders read-only snapshots as xlsx workbooks. Nothing here
// takes part in hashing or verification.
package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/domain/audit"
	"github.com/xuri/excelize/v2"
)

const (
	entriesSheet   = "Audit Log"
	integritySheet = "Integrity"
)

var auditHeaders = []string{
	"Sequence", "Timestamp (UTC)", "Actor", "Action", "Entity Type", "Entity ID",
	"Decision", "Reason", "Previous Hash", "Content Hash",
}

// AuditWorkbook writes the chain in sequence order, followed by a sheet with
// the verification report taken alongside it.
func AuditWorkbook(entries []audit.Entry, report audit.IntegrityReport) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("Failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", entriesSheet); err != nil {
		return nil, err
	}
	row, err := writeHeader(f, entriesSheet, 0, auditHeaders)
	if err != nil {
		return nil, fmt.Errorf("failed to write audit header: %w", err)
	}
	if len(entries) > 0 {
		if err := applyDataCellStyle(f, entriesSheet, 1, row+1, len(auditHeaders), row+len(entries)); err != nil {
			return nil, err
		}
	}
	for _, e := range entries {
		row++
		values := []interface{}{
			e.Sequence,
			e.Timestamp.UTC().Format(time.RFC3339Nano),
			e.ActorID,
			string(e.Action),
			e.EntityType,
			e.EntityID,
			deref(e.Decision),
			deref(e.Reason),
			e.PreviousHash,
			e.ContentHash,
		}
		for col, v := range values {
			if err := writeColumn(f, entriesSheet, col+1, row, v); err != nil {
				return nil, fmt.Errorf("failed to write audit entry %d: %w", e.Sequence, err)
			}
		}
	}

	if err := writeIntegrity(f, report); err != nil {
		return nil, fmt.Errorf("failed to write integrity sheet: %w", err)
	}
	return f.WriteToBuffer()
}

func writeIntegrity(f *excelize.File, report audit.IntegrityReport) error {
	if _, err := f.NewSheet(integritySheet); err != nil {
		return err
	}

	status := "valid"
	if !report.IsValid {
		status = "INVALID"
	}
	summary := [][2]interface{}{
		{"Company", report.CompanyID},
		{"Status", status},
		{"Total entries", report.TotalEntries},
		{"Head sequence", report.HeadSequence},
		{"Head hash", report.HeadHash},
		{"Verified at (UTC)", report.VerifiedAt.UTC().Format(time.RFC3339)},
	}
	row := 0
	for _, kv := range summary {
		row++
		if err := writeColumn(f, integritySheet, 1, row, kv[0]); err != nil {
			return err
		}
		if err := writeColumn(f, integritySheet, 2, row, kv[1]); err != nil {
			return err
		}
	}

	if len(report.InvalidEntries) == 0 {
		return nil
	}
	row, err := writeHeader(f, integritySheet, row+1, []string{"Invalid Sequence", "Reason"})
	if err != nil {
		return err
	}
	for _, inv := range report.InvalidEntries {
		row++
		if err := writeColumn(f, integritySheet, 1, row, inv.Sequence); err != nil {
			return err
		}
		if err := writeColumn(f, integritySheet, 2, row, inv.Reason); err != nil {
			return err
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
