// Package server exposes the tracker over a loopback HTTP API and publishes
// a ring buffer of mutation events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/stashtrack/internal/backup"
	"github.com/theirongolddev/stashtrack/internal/tracker"
)

// Config controls the server runtime behavior.
type Config struct {
	Addr         string
	DataDir      string
	EventsBuffer int
}

// Event is emitted after every successful mutation.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Subject   string    `json:"subject,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Event types.
const (
	EventSubstanceAdded       = "substance_added"
	EventSubstanceUpdated     = "substance_updated"
	EventSubstanceFinished    = "substance_finished"
	EventSubstanceReactivated = "substance_reactivated"
	EventSubstanceDeleted     = "substance_deleted"
	EventEntryAdded           = "entry_added"
	EventEntryUpdated         = "entry_updated"
	EventEntryDeleted         = "entry_deleted"
	EventDatasetImported      = "dataset_imported"
	EventDatasetCleared       = "dataset_cleared"
	EventBackupPushed         = "backup_pushed"
)

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	DataDir         string    `json:"data_dir"`
	Substances      int       `json:"substances"`
	Entries         int       `json:"entries"`
	LastUpdated     string    `json:"last_updated"`
	BackupEnabled   bool      `json:"backup_enabled"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Server serves the HTTP API for one tracker.
type Server struct {
	cfg     Config
	tracker *tracker.Tracker
	backup  *backup.Uploader

	mu          sync.RWMutex
	startedAt   time.Time
	lastError   string
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a server for tr. uploader may be nil when backups are not
// configured.
func New(cfg Config, tr *tracker.Tracker, uploader *backup.Uploader) *Server {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}

	return &Server{
		cfg:       cfg,
		tracker:   tr,
		backup:    uploader,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)

	mux.HandleFunc("GET /v1/dataset", s.handleDataset)
	mux.HandleFunc("GET /v1/substances", s.handleListSubstances)
	mux.HandleFunc("POST /v1/substances", s.handleAddSubstance)
	mux.HandleFunc("PATCH /v1/substances/{id}", s.handleUpdateSubstance)
	mux.HandleFunc("DELETE /v1/substances/{id}", s.handleDeleteSubstance)
	mux.HandleFunc("POST /v1/substances/{id}/finish", s.handleFinishSubstance)
	mux.HandleFunc("POST /v1/substances/{id}/reactivate", s.handleReactivateSubstance)
	mux.HandleFunc("GET /v1/substances/{id}/report", s.handleSubstanceReport)

	mux.HandleFunc("GET /v1/entries", s.handleListEntries)
	mux.HandleFunc("POST /v1/entries", s.handleAddEntry)
	mux.HandleFunc("PATCH /v1/entries/{id}", s.handleUpdateEntry)
	mux.HandleFunc("DELETE /v1/entries/{id}", s.handleDeleteEntry)

	mux.HandleFunc("GET /v1/people", s.handlePeople)
	mux.HandleFunc("GET /v1/people/{person}/stats", s.handlePersonStats)

	mux.HandleFunc("GET /v1/export.json", s.handleExportJSON)
	mux.HandleFunc("GET /v1/export.csv", s.handleExportCSV)
	mux.HandleFunc("POST /v1/import", s.handleImport)
	mux.HandleFunc("POST /v1/clear", s.handleClear)
	mux.HandleFunc("POST /v1/backup", s.handleBackup)
	return mux
}

// Run serves HTTP until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Printf("stashtrack serve: listening on http://%s", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("stashtrack http server: %w", err)
	}
}

// publish records ev in the ring buffer and fans it out to stream
// subscribers without blocking on slow readers.
func (s *Server) publish(typ, subject string, data any) {
	s.mu.Lock()
	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Subject:   subject,
		Data:      data,
	}
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Server) recordError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
	log.Printf("stashtrack serve: %v", err)
}

func (s *Server) snapshotStatus() (Status, error) {
	ds, err := s.tracker.LoadDataset()
	if err != nil {
		return Status{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		DataDir:         s.cfg.DataDir,
		Substances:      len(ds.Substances),
		Entries:         len(ds.Entries),
		LastUpdated:     ds.Metadata.LastUpdated,
		BackupEnabled:   s.backup != nil,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st, err := s.snapshotStatus()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Greet with the current status so clients can render immediately.
	if st, err := s.snapshotStatus(); err == nil {
		writeSSE(w, Event{Type: "status", Timestamp: time.Now().UTC(), Data: st})
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Server) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Server) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
