package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/absence-sync/backend/internal/api/middleware"
	"github.com/absence-sync/backend/internal/storage"
)

// EventResponse is one absence event as the admin UI sees it.
type EventResponse struct {
	ID        string     `json:"id"`
	Day       string     `json:"day"`
	Period    string     `json:"period"`
	PeriodName string    `json:"period_name"`
	Category  string     `json:"category"`
	Updated   bool       `json:"updated"`
	Deleted   bool       `json:"deleted"`
	RemoteID  *string    `json:"remote_id,omitempty"`
	LastPush  *time.Time `json:"last_push,omitempty"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
}

// ListIdentityEvents returns the identity's live events for a window. The
// window defaults to six months from the first of the current month and can
// be adjusted with from/to query parameters (YYYY-MM-DD).
func ListIdentityEvents(identities *storage.IdentityRepository, events *storage.EventRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		identity, err := identities.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query identity")
			return
		}
		if identity == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Identity not found")
			return
		}

		now := time.Now().UTC()
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 6, 0)

		if v := r.URL.Query().Get("from"); v != "" {
			parsed, err := time.ParseInLocation("2006-01-02", v, time.UTC)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid from date")
				return
			}
			from = parsed
		}
		if v := r.URL.Query().Get("to"); v != "" {
			parsed, err := time.ParseInLocation("2006-01-02", v, time.UTC)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid to date")
				return
			}
			to = parsed
		}

		all, err := events.ListLiveWindow(r.Context(), identity.ID, from, to)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query events")
			return
		}

		responses := make([]EventResponse, 0, len(all))
		for i := range all {
			event := &all[i]
			responses = append(responses, EventResponse{
				ID:        event.ID,
				Day:       event.Day.Format("2006-01-02"),
				Period:    event.Period,
				PeriodName: event.PeriodInfo().Name,
				Category:  event.Category,
				Updated:   event.Updated,
				Deleted:   event.Deleted,
				RemoteID:  event.RemoteID,
				LastPush:  event.LastPush,
				Start:     event.Start(),
				End:       event.End(),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(responses)
	}
}
