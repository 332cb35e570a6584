package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pbaille/since/internal/calendar"
	"github.com/pbaille/since/internal/domain"
	"github.com/pbaille/since/internal/remind"
	"github.com/pbaille/since/internal/status"
)

// ItemRequest is the request body for creating or editing an item
type ItemRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// EventRequest is the request body for logging an event. A missing
// timestamp means now.
type EventRequest struct {
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Value     *float64   `json:"value,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

// ConfigRequest edits a reminder config. Omitted fields keep their current
// value. RRule, when set, overrides interval and units.
type ConfigRequest struct {
	Reminding      *bool      `json:"reminding,omitempty"`
	RemindAt       *time.Time `json:"remind_at,omitempty"`
	RemindInterval *int       `json:"remind_interval,omitempty"`
	TimeUnits      *string    `json:"time_units,omitempty"`
	RRule          *string    `json:"rrule,omitempty"`
}

// SettingsRequest is the request body for PUT /settings
type SettingsRequest struct {
	DisplayTimesUsing string `json:"display_times_using"`
}

// ItemResponse is an item status with its next due dates
type ItemResponse struct {
	status.ItemStatus
	RRule    string      `json:"rrule,omitempty"`
	Upcoming []time.Time `json:"upcoming,omitempty"`
}

const defaultUpcoming = 3

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	statuses, ok := s.statuses(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": statuses,
		"now":   s.now(),
	})
}

func (s *Server) listDue(w http.ResponseWriter, r *http.Request) {
	statuses, ok := s.statuses(w)
	if !ok {
		return
	}
	due := status.Due(statuses)
	if due == nil {
		due = []status.ItemStatus{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": due,
		"now":   s.now(),
	})
}

func (s *Server) statuses(w http.ResponseWriter) ([]status.ItemStatus, bool) {
	opts, err := s.statusOptions()
	if err != nil {
		s.writeStoreError(w, err)
		return nil, false
	}
	items, err := s.store.ListItems()
	if err != nil {
		s.writeStoreError(w, err)
		return nil, false
	}
	return status.BuildAll(items, opts, s.now()), true
}

func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	var desc string
	if req.Description != nil {
		desc = *req.Description
	}
	item, err := s.store.AddItem(req.Name, desc)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.logger.Info("item added", "item", item.Name, "id", item.ID)
	s.writeItem(w, http.StatusCreated, item, 0)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.FindItem(r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	n := defaultUpcoming
	if v := r.URL.Query().Get("upcoming"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 && parsed <= 100 {
			n = parsed
		}
	}
	s.writeItem(w, http.StatusOK, item, n)
}

func (s *Server) writeItem(w http.ResponseWriter, code int, item *domain.Item, upcoming int) {
	opts, err := s.statusOptions()
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	resp := ItemResponse{ItemStatus: status.Build(*item, opts, s.now())}
	if item.Config != nil {
		loc := opts.Location
		if loc == nil {
			loc = time.Local
		}
		resp.RRule, _ = remind.RRule(*item.Config, loc)
		if upcoming > 0 {
			resp.Upcoming = remind.Upcoming(item.LastEventAt(), *item.Config, loc, upcoming)
		}
	}
	writeJSON(w, code, resp)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.FindItem(r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := item.Name
	if strings.TrimSpace(req.Name) != "" {
		name = req.Name
	}
	desc := item.Description
	if req.Description != nil {
		desc = *req.Description
	}

	updated, err := s.store.UpdateItem(item.ID, name, desc)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeItem(w, http.StatusOK, updated, 0)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.FindItem(r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if err := s.store.DeleteItem(item.ID); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.logger.Info("item deleted", "item", item.Name, "id", item.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.FindItem(r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	events, err := s.store.ListEvents(item.ID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"item_id": item.ID,
		"events":  events,
	})
}

func (s *Server) addEvent(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.FindItem(r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	// an empty body logs a plain event now
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ts := s.now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	event, err := s.store.AddEvent(item.ID, ts, req.Value, req.Notes)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.logger.Info("event logged", "item", item.Name, "at", event.Timestamp)
	writeJSON(w, http.StatusCreated, event)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteEvent(r.PathValue("id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.FindItem(r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	cfg, err := s.store.GetConfig(item.ID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) setConfig(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.FindItem(r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	var req ConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg := domain.DefaultRemindConfig(s.now())
	if item.Config != nil {
		cfg = *item.Config
	}

	if req.RRule != nil {
		cfg, err = remind.FromRRule(*req.RRule, cfg, s.opts.Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Reminding != nil {
		cfg.Reminding = *req.Reminding
	}
	if req.RemindAt != nil {
		cfg.RemindAt = *req.RemindAt
	}
	if req.RemindInterval != nil {
		cfg.RemindInterval = *req.RemindInterval
	}
	if req.TimeUnits != nil {
		unit, err := domain.ParseUnit(*req.TimeUnits)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cfg.TimeUnits = unit
	}

	saved, err := s.store.SetConfig(item.ID, cfg)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	item.Config = saved
	s.logger.Info("reminder set", "item", item.Name, "reminding", saved.Reminding, "every", saved.Interval(), "unit", saved.TimeUnits)
	s.writeItem(w, http.StatusOK, item, defaultUpcoming)
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings()
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := domain.ParseDisplayMode(req.DisplayTimesUsing)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	settings, err := s.store.SetDisplayMode(mode)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) exportCalendar(w http.ResponseWriter, r *http.Request) {
	statuses, ok := s.statuses(w)
	if !ok {
		return
	}
	loc := s.opts.Location
	if loc == nil {
		loc = time.Local
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(calendar.Export(statuses, loc, s.now())))
}
