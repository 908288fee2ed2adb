package logger

import (
	"context"
	"fmt"
	"time"

	"go-assetlink/internal/config"
	"go-assetlink/internal/database"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to our worker
type LogEntry struct {
	Level       zapcore.Level
	Message     string
	OperationID string
	Caller      string // Function name
}

// LogRecord is the shape persisted to the logs collection
type LogRecord struct {
	Message     string    `bson:"message"`
	Level       string    `bson:"level"`
	OperationID string    `bson:"operation_id,omitempty"`
	Caller      string    `bson:"caller,omitempty"`
	AppId       string    `bson:"app_id"`
	CreatedAt   time.Time `bson:"created_at"`
}

// DBLogWriter handles the async writing
type DBLogWriter struct {
	db      *mongo.Database
	logChan chan LogEntry
	appId   string
}

// NewDBLogWriter initializes the worker
func NewDBLogWriter(mongodb *database.MongodbDB, cfg *config.Config) *DBLogWriter {
	writer := &DBLogWriter{
		db:      mongodb.DB,
		logChan: make(chan LogEntry, 1000),
		appId:   cfg.AppId,
	}

	go writer.processLogs()

	return writer
}

// AddLog is called by our Zap hook
func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case w.logChan <- entry:
	default:
		// Channel full: drop rather than block the caller
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

func (w *DBLogWriter) processLogs() {
	for entry := range w.logChan {
		record := LogRecord{
			Message:     entry.Message,
			Level:       entry.Level.String(),
			OperationID: entry.OperationID,
			Caller:      entry.Caller,
			AppId:       w.appId,
			CreatedAt:   time.Now().UTC(),
		}

		// Insert errors are swallowed so logging can never take the app down
		w.db.Collection("logs").InsertOne(context.Background(), record)
	}
}
