// README: Zone containment probe and standalone quote endpoint.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"reparto/internal/modules/order"
	"reparto/internal/modules/pricing"
	"reparto/internal/types"
)

type ZoneHandler struct {
	zone   order.ZoneChecker
	pricer *pricing.Service
}

func NewZoneHandler(zone order.ZoneChecker, pricer *pricing.Service) *ZoneHandler {
	return &ZoneHandler{zone: zone, pricer: pricer}
}

type zoneCheckReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Check reports containment. Malformed input or out-of-range coordinates
// answer inside=false rather than an error: callers treat this as a
// yes/no gate and the gate fails closed.
func (h *ZoneHandler) Check(c *gin.Context) {
	var req zoneCheckReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusOK, gin.H{"inside": false})
		return
	}
	inside := h.zone.Contains(types.Point{Lat: req.Lat, Lng: req.Lng})
	writeJSON(c, http.StatusOK, gin.H{"inside": inside})
}

type quoteReq struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (h *ZoneHandler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	q := h.pricer.Estimate(req.DistanceKm, time.Duration(req.DurationSeconds*float64(time.Second)))
	writeJSON(c, http.StatusOK, q)
}
