package dashboard

import (
	"encoding/json"
	"log"
	"time"

	"vcman/internal/db"
	"vcman/internal/sync"
)

// Handler formats archive events as dashboard messages. It bridges
// between the watcher daemon and the WebSocket server.
type Handler struct {
	server *Server
	db     *db.DB
	logger *log.Logger
}

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, database *db.DB, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		server: server,
		db:     database,
		logger: logger,
	}
}

// OnContactCreated handles contact creation events
func (h *Handler) OnContactCreated(fileName, name string) {
	h.broadcastContact(fileName, name, "created")
	h.broadcastStats()
}

// OnContactUpdated handles contact update events
func (h *Handler) OnContactUpdated(fileName, name string) {
	h.broadcastContact(fileName, name, "updated")
}

// OnContactRemoved handles contact removal events
func (h *Handler) OnContactRemoved(fileName string) {
	h.broadcastContact(fileName, "", "removed")
	h.broadcastStats()
}

// OnSyncComplete handles full sync completion events. Wired to the
// daemon's OnSync callback.
func (h *Handler) OnSyncComplete(result *sync.Result, duration time.Duration) {
	h.logger.Printf("Sync complete: %d listed, %d inserted, %d updated in %v",
		len(result.Entries), result.Inserted, result.Updated, duration)

	data := SyncCompleteData{
		Listed:    len(result.Entries),
		Inserted:  result.Inserted,
		Updated:   result.Updated,
		Unchanged: result.Unchanged,
		Skipped:   result.Skipped,
		Duration:  duration,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal sync data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeSyncComplete,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})

	h.broadcastStats()
}

// broadcastContact sends one contact change to all clients.
func (h *Handler) broadcastContact(fileName, name, action string) {
	h.logger.Printf("Contact %s: %s (%s)", action, fileName, name)

	data := ContactUpdateData{
		FileName: fileName,
		Name:     name,
		Action:   action,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal contact data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeContactUpdate,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// broadcastStats queries current row counts and sends them to all
// clients.
func (h *Handler) broadcastStats() {
	if h.db == nil {
		return
	}

	files, err := h.db.FileCount()
	if err != nil {
		h.logger.Printf("Failed to count files: %v", err)
		return
	}
	contacts, err := h.db.ContactCount()
	if err != nil {
		h.logger.Printf("Failed to count contacts: %v", err)
		return
	}

	dataJSON, err := json.Marshal(StatsData{Files: files, Contacts: contacts})
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}
