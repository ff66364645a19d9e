package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/theirongolddev/stashtrack/internal/backup"
	"github.com/theirongolddev/stashtrack/internal/codec"
	"github.com/theirongolddev/stashtrack/internal/model"
	"github.com/theirongolddev/stashtrack/internal/stats"
	"github.com/theirongolddev/stashtrack/internal/tracker"
)

const maxBodySize = 1 << 20

// errConfirmationRequired is returned for destructive calls made without
// confirm=true.
var errConfirmationRequired = errors.New("destructive operation requires confirm=true")

type apiError struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type addSubstanceRequest struct {
	Name             string   `json:"name"`
	AdvertisedMass   float64  `json:"advertisedMass"`
	GrossInitialMass *float64 `json:"grossInitialMass"`
}

type updateSubstanceRequest struct {
	Name             *string  `json:"name"`
	AdvertisedMass   *float64 `json:"advertisedMass"`
	GrossInitialMass *float64 `json:"grossInitialMass"`
}

type finishSubstanceRequest struct {
	GrossFinalMass *float64 `json:"grossFinalMass"`
}

type updateEntryRequest struct {
	Delta *float64 `json:"delta"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, apiError{Error: ve.Error(), Field: ve.Field})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, apiError{Error: err.Error()})
	case errors.Is(err, model.ErrParse), errors.Is(err, codec.ErrInvalidBackup):
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
	case errors.Is(err, errConfirmationRequired):
		writeJSON(w, http.StatusPreconditionRequired, apiError{Error: err.Error()})
	case errors.Is(err, backup.ErrNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, apiError{Error: err.Error()})
	default:
		s.recordError(err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding request: %v: %w", err, model.ErrParse)
	}
	return nil
}

func confirmed(r *http.Request) error {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); !ok {
		return errConfirmationRequired
	}
	return nil
}

func (s *Server) handleDataset(w http.ResponseWriter, _ *http.Request) {
	ds, err := s.tracker.LoadDataset()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handleListSubstances(w http.ResponseWriter, r *http.Request) {
	ds, err := s.tracker.LoadDataset()
	if err != nil {
		s.writeError(w, err)
		return
	}
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	reports := make([]tracker.SubstanceReport, 0, len(ds.Substances))
	for _, sub := range ds.Substances {
		if !sub.Active && !all {
			continue
		}
		reports = append(reports, tracker.BuildSubstanceReport(sub, ds.Entries, s.tracker.Now()))
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleAddSubstance(w http.ResponseWriter, r *http.Request) {
	var req addSubstanceRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	sub, err := s.tracker.AddSubstance(req.Name, req.AdvertisedMass, req.GrossInitialMass)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(EventSubstanceAdded, sub.ID, sub)
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleUpdateSubstance(w http.ResponseWriter, r *http.Request) {
	var req updateSubstanceRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	sub, err := s.tracker.UpdateSubstance(r.PathValue("id"), tracker.SubstancePatch{
		Name:             req.Name,
		AdvertisedMass:   req.AdvertisedMass,
		GrossInitialMass: req.GrossInitialMass,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(EventSubstanceUpdated, sub.ID, sub)
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleFinishSubstance(w http.ResponseWriter, r *http.Request) {
	var req finishSubstanceRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}
	sub, err := s.tracker.DeactivateSubstance(r.PathValue("id"), req.GrossFinalMass)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(EventSubstanceFinished, sub.ID, sub)
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleReactivateSubstance(w http.ResponseWriter, r *http.Request) {
	sub, err := s.tracker.ReactivateSubstance(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(EventSubstanceReactivated, sub.ID, sub)
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleDeleteSubstance(w http.ResponseWriter, r *http.Request) {
	if err := confirmed(r); err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("id")
	if err := s.tracker.DeleteSubstance(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(EventSubstanceDeleted, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubstanceReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.tracker.SubstanceReport(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	ds, err := s.tracker.LoadDataset()
	if err != nil {
		s.writeError(w, err)
		return
	}

	q := r.URL.Query()
	entries := ds.Entries
	if person := q.Get("person"); person != "" {
		entries = stats.FilterByPerson(entries, person)
	}
	if sub := q.Get("substance"); sub != "" {
		entries = stats.FilterBySubstance(entries, sub)
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit >= 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	var req model.EntryInput
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	e, err := s.tracker.AddEntry(req.SubstanceID, req.Person, req.Delta, req.Notes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(EventEntryAdded, e.ID, e)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req updateEntryRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Delta == nil {
		s.writeError(w, &model.ValidationError{Field: "delta", Reason: "must not be empty"})
		return
	}
	e, err := s.tracker.UpdateEntry(r.PathValue("id"), *req.Delta)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(EventEntryUpdated, e.ID, e)
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := confirmed(r); err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("id")
	if err := s.tracker.DeleteEntry(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(EventEntryDeleted, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePeople(w http.ResponseWriter, _ *http.Request) {
	people, err := s.tracker.People()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}

func (s *Server) handlePersonStats(w http.ResponseWriter, r *http.Request) {
	inactive, _ := strconv.ParseBool(r.URL.Query().Get("inactive"))
	report, err := s.tracker.PersonReport(r.PathValue("person"), inactive)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, _ *http.Request) {
	data, err := s.tracker.ExportJSON()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.tracker.ExportFilename(codec.KindJSON)))
	_, _ = w.Write(data)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := s.tracker.ExportCSV(&buf); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.tracker.ExportFilename(codec.KindCSV)))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := confirmed(r); err != nil {
		s.writeError(w, err)
		return
	}
	ds, err := s.tracker.ImportJSON(http.MaxBytesReader(w, r.Body, 32<<20))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(EventDatasetImported, "", map[string]int{
		"substances": len(ds.Substances),
		"entries":    len(ds.Entries),
	})
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := confirmed(r); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.tracker.ClearAll(); err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(EventDatasetCleared, "", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	if s.backup == nil {
		s.writeError(w, backup.ErrNotConfigured)
		return
	}
	objs, err := backup.Push(r.Context(), s.backup, s.tracker)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(EventBackupPushed, s.backup.Bucket(), objs)
	writeJSON(w, http.StatusCreated, objs)
}
