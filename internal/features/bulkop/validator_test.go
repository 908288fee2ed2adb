package bulkop

import (
	"context"
	"errors"
	"testing"
)

func TestValidateRowRules(t *testing.T) {
	svc, assoc, _, _ := newTestService()
	assoc.addDevice("D1")
	assoc.addDevice("D2")
	assoc.addAsset("A1")
	assoc.addAsset("A2")
	assoc.link("D2", "A2")

	tests := []struct {
		name        string
		row         AssociationRow
		wantStatus  ItemStatus
		wantMessage string
	}{
		{
			name:       "valid row",
			row:        AssociationRow{DeviceID: "D1", AssetID: "A1"},
			wantStatus: ItemPending,
		},
		{
			name:        "missing device id",
			row:         AssociationRow{DeviceID: "", AssetID: "A1"},
			wantStatus:  ItemError,
			wantMessage: "missing identifier",
		},
		{
			name:        "missing asset id",
			row:         AssociationRow{DeviceID: "D1", AssetID: "  "},
			wantStatus:  ItemError,
			wantMessage: "missing identifier",
		},
		{
			name:        "unknown device",
			row:         AssociationRow{DeviceID: "D9", AssetID: "A1"},
			wantStatus:  ItemError,
			wantMessage: "device not found",
		},
		{
			name:        "unknown asset",
			row:         AssociationRow{DeviceID: "D1", AssetID: "A9"},
			wantStatus:  ItemError,
			wantMessage: "asset not found",
		},
		{
			name:        "already associated",
			row:         AssociationRow{DeviceID: "D2", AssetID: "A2"},
			wantStatus:  ItemSkipped,
			wantMessage: "no-op, already associated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := svc.Validate(context.Background(), []AssociationRow{tt.row}, "tester")
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			item := report.Items[0]
			if item.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", item.Status, tt.wantStatus)
			}
			if item.ErrorMessage != tt.wantMessage {
				t.Errorf("message = %q, want %q", item.ErrorMessage, tt.wantMessage)
			}
		})
	}
}

func TestValidateEmptyBatch(t *testing.T) {
	svc, _, ops, _ := newTestService()

	_, err := svc.Validate(context.Background(), nil, "tester")
	if !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("Validate() error = %v, want ErrEmptyBatch", err)
	}

	list, _ := ops.List(context.Background(), 10)
	if len(list) != 0 {
		t.Errorf("expected no operation to be created, got %d", len(list))
	}
}

func TestValidateFirstFailingRuleWins(t *testing.T) {
	svc, _, _, _ := newTestService()

	// Device and asset are both unknown; the device rule is checked first.
	report, err := svc.Validate(context.Background(), []AssociationRow{{DeviceID: "D9", AssetID: "A9"}}, "tester")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got := report.Items[0].ErrorMessage; got != "device not found" {
		t.Errorf("message = %q, want %q", got, "device not found")
	}
}

func TestValidateReportCounts(t *testing.T) {
	svc, assoc, _, _ := newTestService()
	assoc.addDevice("D1")
	assoc.addDevice("D2")
	assoc.addAsset("A1")
	assoc.addAsset("A2")
	assoc.link("D2", "A2")

	rows := []AssociationRow{
		{DeviceID: "D1", AssetID: "A1"},
		{DeviceID: "D2", AssetID: "A2"},
		{DeviceID: "D9", AssetID: "A1"},
		{DeviceID: "", AssetID: ""},
	}

	report, err := svc.Validate(context.Background(), rows, "tester")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if report.ValidCount != 1 || report.InvalidCount != 2 || report.SkippedCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/2/1",
			report.ValidCount, report.InvalidCount, report.SkippedCount)
	}
	if report.Operation.Status != StatusValidated {
		t.Errorf("status = %s, want %s", report.Operation.Status, StatusValidated)
	}
	if report.Operation.TotalItems != len(rows) {
		t.Errorf("total = %d, want %d", report.Operation.TotalItems, len(rows))
	}
	for i, item := range report.Items {
		if item.RowNumber != i+1 {
			t.Errorf("row %d: rowNumber = %d", i, item.RowNumber)
		}
	}
}

func TestValidateIsIdempotentAndSideEffectFree(t *testing.T) {
	svc, assoc, _, cl := newTestService()
	assoc.addDevice("D1")
	assoc.addAsset("A1")
	assoc.link("D1", "A2")

	rows := []AssociationRow{
		{DeviceID: "D1", AssetID: "A1"},
		{DeviceID: "D9", AssetID: "A1"},
	}

	first, err := svc.Validate(context.Background(), rows, "tester")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	second, err := svc.Validate(context.Background(), rows, "tester")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	for i := range first.Items {
		if first.Items[i].Status != second.Items[i].Status {
			t.Errorf("row %d: status drifted between runs: %s vs %s",
				i+1, first.Items[i].Status, second.Items[i].Status)
		}
	}

	// Validation must not touch the association store or the change log.
	if got, _ := assoc.GetCurrentAssociation(context.Background(), "D1"); got != "A2" {
		t.Errorf("association mutated during validation: %q", got)
	}
	if len(cl.entries) != 0 {
		t.Errorf("change log written during validation: %d entries", len(cl.entries))
	}
}
