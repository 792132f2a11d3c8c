package mockapi

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

const (
	defaultListLimit = 20
	maxBodyBytes     = 1 << 20
)

type handler struct {
	store *Store
	token string
}

// NewHandler serves the backend REST surface under /api/v1. When token is not
// empty every request must carry it as a bearer token.
func NewHandler(store *Store, token string) http.Handler {
	h := &handler{store: store, token: token}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/tickets", h.createTicket)
	mux.HandleFunc("GET /api/v1/tickets", h.listTickets)
	mux.HandleFunc("GET /api/v1/tickets/{rfc}", h.getTicket)
	mux.HandleFunc("PUT /api/v1/tickets/{rfc}", h.updateTicket)
	mux.HandleFunc("PUT /api/v1/tickets/{rfc}/close", h.closeTicket)
	mux.HandleFunc("GET /api/v1/tickets/{rfc}/history", h.ticketHistory)
	mux.HandleFunc("GET /api/v1/metrics/resolution", h.resolutionMetrics)

	return h.authorize(mux)
}

func (h *handler) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token != "" {
			got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
				writeDetail(w, http.StatusUnauthorized, "Invalid token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) createTicket(w http.ResponseWriter, r *http.Request) {
	var in NewTicket
	if err := decodeBody(r, &in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var missing []string
	for name, v := range map[string]string{
		"title": in.Title, "description": in.Description, "category": in.Category, "priority": in.Priority,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		writeDetail(w, http.StatusUnprocessableEntity, "missing fields: "+strings.Join(missing, ", "))
		return
	}

	t := h.store.Create(in)
	slog.InfoContext(r.Context(), "created ticket", slog.Any("rfc_number", t["rfc_number"]))

	writeJSON(w, http.StatusCreated, t)
}

func (h *handler) updateTicket(w http.ResponseWriter, r *http.Request) {
	fields := map[string]any{}
	if err := decodeBody(r, &fields); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	delete(fields, "account_id")

	t, err := h.store.Update(r.PathValue("rfc"), fields)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "updated ticket", slog.String("rfc_number", r.PathValue("rfc")))
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) closeTicket(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Comment *string `json:"comment"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	comment := r.URL.Query().Get("comment")
	if body.Comment != nil {
		comment = *body.Comment
	}

	t, err := h.store.Close(r.PathValue("rfc"), comment)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "closed ticket", slog.String("rfc_number", r.PathValue("rfc")))
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) getTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.Get(r.PathValue("rfc"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) ticketHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.store.History(r.PathValue("rfc"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *handler) listTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := Filter{
		Status:     q.Get("status"),
		Priority:   q.Get("priority"),
		GroupID:    q.Get("group_id"),
		AssignedTo: q.Get("assigned_to"),
		Limit:      defaultListLimit,
	}

	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, name+" must be an integer")
			return
		}
		*dst = n
	}

	page := h.store.List(f)
	slog.InfoContext(r.Context(), "listed tickets", slog.Int("count", len(page)))

	writeJSON(w, http.StatusOK, map[string]any{"tickets": page})
}

func (h *handler) resolutionMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.ResolutionMetrics())
}

func decodeBody(r *http.Request, dst any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.New("failed to read request body")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err = dec.Decode(dst); err != nil {
		return errors.New("request body must be a json object")
	}
	return nil
}

func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrTicketNotFound) {
		slog.WarnContext(r.Context(), "ticket not found", slog.String("rfc_number", r.PathValue("rfc")))
		writeDetail(w, http.StatusNotFound, "Ticket not found")
		return
	}

	slog.ErrorContext(r.Context(), "store failure", slog.String("error", err.Error()))
	writeDetail(w, http.StatusInternalServerError, "internal error")
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", slog.String("error", err.Error()))
	}
}
