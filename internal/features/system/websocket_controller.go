package system

import (
	"context"
	"log"
	"time"

	"go-assetlink/internal/features/bulkop"

	"github.com/gofiber/contrib/websocket"
)

type WebSocketController struct {
	BulkService bulkop.BulkOperationService
}

func NewWebSocketController(bulkService bulkop.BulkOperationService) *WebSocketController {
	return &WebSocketController{
		BulkService: bulkService,
	}
}

type progressFrame struct {
	OperationID    string                 `json:"operation_id"`
	Status         bulkop.OperationStatus `json:"status"`
	TotalItems     int                    `json:"total_items"`
	ProcessedItems int                    `json:"processed_items"`
	SuccessCount   int                    `json:"success_count"`
	ErrorCount     int                    `json:"error_count"`
	SkippedCount   int                    `json:"skipped_count"`
}

// HandleOperationProgress streams an operation's counters until it reaches a
// terminal status, then closes.
func (h *WebSocketController) HandleOperationProgress(c *websocket.Conn) {
	opID := c.Params("id")

	for {
		op, err := h.BulkService.GetOperation(context.Background(), opID)
		if err != nil {
			c.WriteJSON(map[string]string{"error": err.Error()})
			break
		}

		frame := progressFrame{
			OperationID:    op.ID.Hex(),
			Status:         op.Status,
			TotalItems:     op.TotalItems,
			ProcessedItems: op.ProcessedItems,
			SuccessCount:   op.SuccessCount,
			ErrorCount:     op.ErrorCount,
			SkippedCount:   op.SkippedCount,
		}
		if err := c.WriteJSON(frame); err != nil {
			log.Println("write:", err)
			break
		}

		if op.Status.IsTerminal() {
			break
		}
		time.Sleep(time.Second)
	}
}
