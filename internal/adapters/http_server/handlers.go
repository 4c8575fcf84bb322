package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_listings/internal/app"
	"hotel_listings/internal/domain"
)

const maxBodyBytes = 1 << 20

const (
	msgListEmpty     = "no hotels found"
	msgSearchEmpty   = "no hotel matches that name"
	msgHotelMissing  = "hotel not found"
	msgDuplicateName = "hotel already exists"
	msgTypeDuplicate = "hotel type already exists"
	msgCreated       = "hotel created successfully"
	msgUpdated       = "hotel updated successfully"
	msgDeleted       = "hotel deleted successfully"
	msgInternal      = "internal server error"
	msgBadJSON       = "invalid JSON body"
)

type Handlers struct {
	Q *app.QueryService
	C *app.CommandService
}

type messageBody struct {
	Message string `json:"message"`
}

type createdBody struct {
	Message string    `json:"message"`
	Data    hotelJSON `json:"data"`
}

type hotelJSON struct {
	ID          string         `json:"id"`
	Name        string         `json:"hotelName"`
	HotelType   any            `json:"hotelType"`
	Address     domain.Address `json:"address"`
	Slug        string         `json:"slug"`
	Image       domain.Image   `json:"hotelImage"`
	Ranking     float64        `json:"ranking"`
	Description string         `json:"description,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type pageJSON struct {
	Items         []hotelJSON `json:"items"`
	TotalDocs     int64       `json:"totalDocs"`
	Limit         int         `json:"limit"`
	TotalPages    int         `json:"totalPages"`
	Page          int         `json:"page"`
	PagingCounter int         `json:"pagingCounter"`
	HasPrevPage   bool        `json:"hasPrevPage"`
	HasNextPage   bool        `json:"hasNextPage"`
	PrevPage      *int        `json:"prevPage"`
	NextPage      *int        `json:"nextPage"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1/hotels", func(r chi.Router) {
		r.Get("/", h.listHotels)
		r.Post("/", h.createHotel)
		r.Get("/search", h.searchHotels)
		r.Get("/{id}", h.getHotel)
		r.Put("/{id}", h.updateHotel)
		r.Delete("/{id}", h.deleteHotel)
	})
	s.mux.Route("/v1/hotel-types", func(r chi.Router) {
		r.Get("/", h.listTypes)
		r.Post("/", h.createType)
	})
}

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lq := app.ListQuery{
		Page:   atoiOrZero(q.Get("page")),
		Limit:  atoiOrZero(q.Get("limit")),
		Sort:   q.Get("sort"),
		Order:  q.Get("order"),
		Search: q.Get("search"),
		Filter: q.Get("filter"),
	}
	page, err := h.Q.List(r.Context(), lq)
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, messageBody{msgListEmpty})
		return
	}
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageJSON(page))
}

func (h *Handlers) searchHotels(w http.ResponseWriter, r *http.Request) {
	hs, err := h.Q.Search(r.Context(), r.URL.Query().Get("name"))
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, messageBody{msgSearchEmpty})
		return
	}
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	out := make([]hotelJSON, len(hs))
	for i, hot := range hs {
		out[i] = toHotelJSON(hot)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	hot, err := h.Q.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, messageBody{msgHotelMissing})
		return
	}
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHotelJSON(hot))
}

func (h *Handlers) createHotel(w http.ResponseWriter, r *http.Request) {
	var in domain.HotelInput
	if !decodeBody(w, r, &in) {
		return
	}
	hot, err := h.C.Create(r.Context(), in)
	if err != nil {
		writeCommandErr(w, r, err, msgDuplicateName)
		return
	}
	writeJSON(w, http.StatusOK, createdBody{Message: msgCreated, Data: toHotelJSON(hot)})
}

func (h *Handlers) updateHotel(w http.ResponseWriter, r *http.Request) {
	var in domain.HotelInput
	if !decodeBody(w, r, &in) {
		return
	}
	if err := h.C.Update(r.Context(), chi.URLParam(r, "id"), in); err != nil {
		writeCommandErr(w, r, err, msgDuplicateName)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{msgUpdated})
}

func (h *Handlers) deleteHotel(w http.ResponseWriter, r *http.Request) {
	if err := h.C.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeCommandErr(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, messageBody{msgDeleted})
}

func (h *Handlers) listTypes(w http.ResponseWriter, r *http.Request) {
	ts, err := h.Q.ListTypes(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if ts == nil {
		ts = []domain.HotelType{}
	}
	writeJSON(w, http.StatusOK, ts)
}

func (h *Handlers) createType(w http.ResponseWriter, r *http.Request) {
	var in domain.HotelTypeInput
	if !decodeBody(w, r, &in) {
		return
	}
	t, err := h.C.CreateType(r.Context(), in)
	if err != nil {
		writeCommandErr(w, r, err, msgTypeDuplicate)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// writeCommandErr maps command failures: validation -> 400 message array,
// duplicate -> 400 {message}, missing -> 404, anything else -> 500.
// dupMsg is unused by commands that cannot hit a name conflict.
func writeCommandErr(w http.ResponseWriter, r *http.Request, err error, dupMsg string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Messages())
	case errors.Is(err, domain.ErrDuplicateName):
		writeJSON(w, http.StatusBadRequest, messageBody{dupMsg})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, messageBody{msgHotelMissing})
	default:
		writeInternal(w, r, err)
	}
}

func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, messageBody{msgInternal})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, []string{msgBadJSON})
		return false
	}
	return true
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func toHotelJSON(h domain.Hotel) hotelJSON {
	var typ any = h.TypeID
	if h.Type != nil {
		typ = h.Type
	}
	return hotelJSON{
		ID:          h.ID,
		Name:        h.Name,
		HotelType:   typ,
		Address:     h.Address,
		Slug:        h.Slug,
		Image:       h.Image,
		Ranking:     h.Ranking,
		Description: h.Description,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}

func toPageJSON(p domain.HotelPage) pageJSON {
	out := pageJSON{
		Items:         make([]hotelJSON, len(p.Items)),
		TotalDocs:     p.TotalDocs,
		Limit:         p.Limit,
		TotalPages:    p.TotalPages,
		Page:          p.Page,
		PagingCounter: (p.Page-1)*p.Limit + 1,
		HasPrevPage:   p.Page > 1,
		HasNextPage:   p.Page < p.TotalPages,
	}
	for i, h := range p.Items {
		out.Items[i] = toHotelJSON(h)
	}
	if out.HasPrevPage {
		prev := p.Page - 1
		out.PrevPage = &prev
	}
	if out.HasNextPage {
		next := p.Page + 1
		out.NextPage = &next
	}
	return out
}
