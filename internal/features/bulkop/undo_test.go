package bulkop

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func completedOperation(t *testing.T, svc *BulkOperationServiceImpl, rows []AssociationRow) string {
	t.Helper()
	report, err := svc.Validate(context.Background(), rows, "tester")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	op, err := svc.Confirm(context.Background(), report.Operation.ID.Hex(), "tester")
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if op.Status != StatusCompleted {
		t.Fatalf("setup: status = %s, want %s", op.Status, StatusCompleted)
	}
	return op.ID.Hex()
}

func TestUndoRestoresPriorState(t *testing.T) {
	svc, assoc, _, _ := newTestService()
	assoc.addDevice("D1")
	assoc.addDevice("D2")
	assoc.addAsset("A1")
	assoc.addAsset("A2")
	assoc.addAsset("A3")
	assoc.link("D2", "A3") // D2 had a previous link, D1 had none

	opID := completedOperation(t, svc, []AssociationRow{
		{DeviceID: "D1", AssetID: "A1"},
		{DeviceID: "D2", AssetID: "A2"},
	})

	op, err := svc.Undo(context.Background(), opID, "tester")
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if op.Status != StatusUndone {
		t.Errorf("status = %s, want %s", op.Status, StatusUndone)
	}

	// D1 reverts to unassociated, D2 back to its original asset.
	if got, _ := assoc.GetCurrentAssociation(context.Background(), "D1"); got != "" {
		t.Errorf("D1 association = %q, want none", got)
	}
	if got, _ := assoc.GetCurrentAssociation(context.Background(), "D2"); got != "A3" {
		t.Errorf("D2 association = %q, want A3", got)
	}

	items, _ := svc.ListItems(context.Background(), opID)
	for _, item := range items {
		if item.Status != ItemUndone {
			t.Errorf("row %d: status = %s, want %s", item.RowNumber, item.Status, ItemUndone)
		}
	}
}

func TestUndoOnlySuccessRowsRevert(t *testing.T) {
	svc, assoc, _, _ := newTestService()
	assoc.addDevice("D1")
	assoc.addAsset("A1")

	opID := completedOperation(t, svc, []AssociationRow{
		{DeviceID: "D1", AssetID: "A1"},
		{DeviceID: "D9", AssetID: "A1"}, // fails validation, never applied
	})

	if _, err := svc.Undo(context.Background(), opID, "tester"); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}

	items, _ := svc.ListItems(context.Background(), opID)
	if items[0].Status != ItemUndone {
		t.Errorf("row 1 = %s, want %s", items[0].Status, ItemUndone)
	}
	if items[1].Status != ItemError {
		t.Errorf("row 2 = %s, want untouched %s", items[1].Status, ItemError)
	}
}

func TestUndoWindowExpired(t *testing.T) {
	svc, assoc, _, _ := newTestService()
	assoc.addDevice("D1")
	assoc.addAsset("A1")

	opID := completedOperation(t, svc, []AssociationRow{{DeviceID: "D1", AssetID: "A1"}})

	// Jump past the deadline.
	svc.now = func() time.Time { return time.Now().Add(time.Hour) }

	if _, err := svc.Undo(context.Background(), opID, "tester"); !errors.Is(err, ErrUndoWindowExpired) {
		t.Fatalf("Undo() error = %v, want ErrUndoWindowExpired", err)
	}

	// Nothing was reverted.
	if got, _ := assoc.GetCurrentAssociation(context.Background(), "D1"); got != "A1" {
		t.Errorf("D1 association = %q, want A1", got)
	}
	op, _ := svc.GetOperation(context.Background(), opID)
	if op.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", op.Status, StatusCompleted)
	}
}

func TestUndoWrongState(t *testing.T) {
	svc, assoc, _, _ := newTestService()
	assoc.addDevice("D1")
	assoc.addAsset("A1")

	report, _ := svc.Validate(context.Background(), []AssociationRow{{DeviceID: "D1", AssetID: "A1"}}, "tester")
	opID := report.Operation.ID.Hex()

	// Still Validated: nothing to undo.
	if _, err := svc.Undo(context.Background(), opID, "tester"); !errors.Is(err, ErrInvalidOperationState) {
		t.Errorf("Undo() error = %v, want ErrInvalidOperationState", err)
	}
}

func TestUndoTwiceFailsSecondTime(t *testing.T) {
	svc, assoc, _, _ := newTestService()
	assoc.addDevice("D1")
	assoc.addAsset("A1")

	opID := completedOperation(t, svc, []AssociationRow{{DeviceID: "D1", AssetID: "A1"}})

	if _, err := svc.Undo(context.Background(), opID, "tester"); err != nil {
		t.Fatalf("first Undo() error = %v", err)
	}
	if _, err := svc.Undo(context.Background(), opID, "tester"); !errors.Is(err, ErrInvalidOperationState) {
		t.Errorf("second Undo() error = %v, want ErrInvalidOperationState", err)
	}
}

func TestUndoConflictingRowLeftSuccess(t *testing.T) {
	svc, assoc, _, _ := newTestService()
	assoc.addDevice("D1")
	assoc.addDevice("D2")
	assoc.addAsset("A1")
	assoc.addAsset("A2")
	assoc.addAsset("A9")

	opID := completedOperation(t, svc, []AssociationRow{
		{DeviceID: "D1", AssetID: "A1"},
		{DeviceID: "D2", AssetID: "A2"},
	})

	// Someone re-links D1 behind the engine's back.
	assoc.link("D1", "A9")

	op, err := svc.Undo(context.Background(), opID, "tester")
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if op.Status != StatusUndone {
		t.Errorf("status = %s, want %s", op.Status, StatusUndone)
	}

	items, _ := svc.ListItems(context.Background(), opID)
	if items[0].Status != ItemSuccess {
		t.Errorf("conflicted row = %s, want left %s", items[0].Status, ItemSuccess)
	}
	if !strings.Contains(items[0].ErrorMessage, "undo conflict") {
		t.Errorf("conflicted row message = %q, want conflict note", items[0].ErrorMessage)
	}
	if items[1].Status != ItemUndone {
		t.Errorf("clean row = %s, want %s", items[1].Status, ItemUndone)
	}

	// The conflicting link is untouched, the clean one is reverted.
	if got, _ := assoc.GetCurrentAssociation(context.Background(), "D1"); got != "A9" {
		t.Errorf("D1 association = %q, want A9", got)
	}
	if got, _ := assoc.GetCurrentAssociation(context.Background(), "D2"); got != "" {
		t.Errorf("D2 association = %q, want none", got)
	}
}
