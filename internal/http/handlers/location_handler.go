// README: Location ingest and history endpoints.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reparto/internal/modules/location"
	"reparto/internal/modules/rider"
)

type LocationHandler struct {
	locations *location.Service
	riders    *rider.Service
	log       *zap.Logger
}

func NewLocationHandler(locations *location.Service, riders *rider.Service, log *zap.Logger) *LocationHandler {
	return &LocationHandler{locations: locations, riders: riders, log: log}
}

type pushSampleReq struct {
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	Speed      *float64   `json:"speed"`
	Heading    *float64   `json:"heading"`
	Accuracy   *float64   `json:"accuracy"`
	Battery    *int       `json:"battery"`
	Source     *string    `json:"source"`
	RecordedAt *time.Time `json:"recorded_at"`
}

func (h *LocationHandler) Push(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req pushSampleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	sample := location.Sample{
		Lat:      req.Lat,
		Lng:      req.Lng,
		Speed:    req.Speed,
		Heading:  req.Heading,
		Accuracy: req.Accuracy,
		Battery:  req.Battery,
		Source:   req.Source,
	}
	if req.RecordedAt != nil {
		sample.RecordedAt = req.RecordedAt.UTC()
	}
	res, err := h.locations.RecordSample(c.Request.Context(), id, sample)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	// The response carries the refreshed rider so clients see the new last
	// location (or the untouched one, when the sample was stale) without a
	// second round trip.
	r, err := h.riders.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"accepted": res.Accepted, "rider": r})
}

func (h *LocationHandler) History(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var f location.HistoryFilter
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(c, http.StatusBadRequest, "from must be RFC3339")
			return
		}
		f.From = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(c, http.StatusBadRequest, "to must be RFC3339")
			return
		}
		f.To = &t
	}
	f.Limit, _ = strconv.Atoi(c.Query("limit"))

	entries, err := h.locations.History(c.Request.Context(), id, f)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"locations": entries, "count": len(entries)})
}
