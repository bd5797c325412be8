// README: Order creation, fetch, listing, and the dispatch actions.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reparto/internal/modules/dispatch"
	"reparto/internal/modules/order"
	"reparto/internal/types"
)

type OrderHandler struct {
	orders   *order.Service
	dispatch *dispatch.Service
	log      *zap.Logger
}

func NewOrderHandler(orders *order.Service, dispatchSvc *dispatch.Service, log *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, dispatch: dispatchSvc, log: log}
}

type createOrderReq struct {
	CustomerName     string  `json:"customer_name"`
	CustomerLastname string  `json:"customer_lastname"`
	PickupAddress    string  `json:"pickup_address"`
	DeliveryAddress  string  `json:"delivery_address"`
	PickupLat        float64 `json:"pickup_lat"`
	PickupLng        float64 `json:"pickup_lng"`
	DropoffLat       float64 `json:"dropoff_lat"`
	DropoffLng       float64 `json:"dropoff_lng"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	o, err := h.orders.Create(c.Request.Context(), order.CreateCommand{
		CustomerName:     req.CustomerName,
		CustomerLastname: req.CustomerLastname,
		PickupAddress:    req.PickupAddress,
		DeliveryAddress:  req.DeliveryAddress,
		Pickup:           types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		Dropoff:          types.Point{Lat: req.DropoffLat, Lng: req.DropoffLng},
	})
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusCreated, o)
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	o, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, o)
}

func (h *OrderHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	orders, err := h.orders.List(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

type assignReq struct {
	RiderID int64 `json:"rider_id"`
}

func (h *OrderHandler) Assign(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil || req.RiderID <= 0 {
		writeError(c, http.StatusBadRequest, "rider_id is required")
		return
	}
	res, err := h.dispatch.Assign(c.Request.Context(), id, req.RiderID)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (h *OrderHandler) Complete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil || req.RiderID <= 0 {
		writeError(c, http.StatusBadRequest, "rider_id is required")
		return
	}
	res, err := h.dispatch.Complete(c.Request.Context(), req.RiderID, id)
	if err != nil {
		writeDomainError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}
