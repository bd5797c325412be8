// README: Rider profile, availability, and proximity endpoints.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reparto/internal/modules/dispatch"
	"reparto/internal/modules/rider"
	"reparto/internal/types"
)

type RiderHandler struct {
	riders   *rider.Service
	dispatch *dispatch.Service
	log      *zap.Logger
}

func NewRiderHandler(riders *rider.Service, dispatchSvc *dispatch.Service, log *zap.Logger) *RiderHandler {
	return &RiderHandler{riders: riders, dispatch: dispatchSvc, log: log}
}

type createRiderReq struct {
	UserID        int64       `json:"user_id"`
	Phone         string      `json:"phone"`
	LicenseNumber *string     `json:"license_number"`
	Vehicle       *vehicleReq `json:"vehicle"`
}

type vehicleReq struct {
	Type         string  `json:"type"`
	Brand        *string `json:"brand"`
	Model        *string `json:"model"`
	Year         *int    `json:"year"`
	LicensePlate string  `json:"license_plate"`
	Color        *string `json:"color"`
}

func (v *vehicleReq) toModel() *rider.Vehicle {
	if v == nil {
		return nil
	}
	return &rider.Vehicle{
		Type:         rider.VehicleType(v.Type),
		Brand:        v.Brand,
		Model:        v.Model,
		Year:         v.Year,
		LicensePlate: v.LicensePlate,
		Color:        v.Color,
	}
}

func (h *RiderHandler) Create(c *gin.Context) {
	var req createRiderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.riders.Create(c.Request.Context(), rider.CreateCommand{
		UserID:        req.UserID,
		Phone:         req.Phone,
		LicenseNumber: req.LicenseNumber,
		Vehicle:       req.Vehicle.toModel(),
	})
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusCreated, r)
}

func (h *RiderHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	r, err := h.riders.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *RiderHandler) List(c *gin.Context) {
	f := rider.ListFilter{}
	if s := c.Query("status"); s != "" {
		st := rider.Status(s)
		f.Status = &st
	}
	if s := c.Query("is_active"); s != "" {
		active, err := strconv.ParseBool(s)
		if err != nil {
			writeError(c, http.StatusBadRequest, "is_active must be a bool")
			return
		}
		f.IsActive = &active
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	riders, total, err := h.riders.List(c.Request.Context(), f)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"riders": riders,
		"total":  total,
		"page":   f.Page,
		"limit":  f.Limit,
	})
}

func (h *RiderHandler) Available(c *gin.Context) {
	riders, err := h.riders.Available(c.Request.Context())
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"riders": riders})
}

func (h *RiderHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	p := types.Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		writeError(c, http.StatusBadRequest, "coordinates out of range")
		return
	}
	radiusKm, _ := strconv.ParseFloat(c.Query("radius_km"), 64)
	limit, _ := strconv.Atoi(c.Query("limit"))

	riders, err := h.dispatch.NearbyAvailable(c.Request.Context(), p, radiusKm, limit)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"riders": riders})
}

type setStatusReq struct {
	Status string `json:"status"`
}

func (h *RiderHandler) SetStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req setStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.riders.SetStatus(c.Request.Context(), id, rider.Status(req.Status))
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

type setActiveReq struct {
	IsActive *bool `json:"is_active"`
}

func (h *RiderHandler) SetActive(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req setActiveReq
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		writeError(c, http.StatusBadRequest, "is_active is required")
		return
	}
	r, err := h.riders.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

type setRatingReq struct {
	Rating *float64 `json:"rating"`
}

func (h *RiderHandler) SetRating(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req setRatingReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Rating == nil {
		writeError(c, http.StatusBadRequest, "rating is required")
		return
	}
	r, err := h.riders.SetRating(c.Request.Context(), id, *req.Rating)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, r)
}

func (h *RiderHandler) PutVehicle(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req vehicleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	v, err := h.riders.PutVehicle(c.Request.Context(), id, *req.toModel())
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, v)
}

func (h *RiderHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.riders.Delete(c.Request.Context(), id); err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
