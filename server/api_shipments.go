package parcelserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	shipmenthttpmapper "github.com/parceltrack/parcel-api-server/internal/domains/shipments/adapters/http/mapper"
	shipmentsdomain "github.com/parceltrack/parcel-api-server/internal/domains/shipments/domain"
	shipmentsports "github.com/parceltrack/parcel-api-server/internal/domains/shipments/ports"
	"github.com/parceltrack/parcel-api-server/internal/shared/response"
)

// ShipmentAPI wires HTTP transport with the shipments bounded context service.
type ShipmentAPI struct {
	service shipmentsports.Service
}

// NewShipmentAPI creates a ShipmentAPI backed by the provided service.
func NewShipmentAPI(service shipmentsports.Service) ShipmentAPI {
	return ShipmentAPI{service: service}
}

// Post /shipments
// Register a new shipment
func (api *ShipmentAPI) CreateShipment(c *gin.Context) {
	var payload shipmenthttpmapper.CreateShipmentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	actor := actorFrom(c)
	created, err := api.service.Create(c.Request.Context(), shipmenthttpmapper.ToCreateInput(payload), actor.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, "Shipment created", shipmenthttpmapper.FromDomainShipment(created))
}

// Get /shipments
// List shipments with pagination and filters
func (api *ShipmentAPI) ListShipments(c *gin.Context) {
	filter := shipmentsports.ListFilter{
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 10),
		Status:   shipmentsdomain.Status(c.Query("status")),
		DriverID: c.Query("driverId"),
		Search:   c.Query("search"),
	}
	actor := actorFrom(c)
	shipments, total, err := api.service.List(c.Request.Context(), filter, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	page := response.Pagination{Page: filter.Page, Limit: filter.Limit, Total: total}
	if page.Page < 1 {
		page.Page = 1
	}
	if page.Limit < 1 {
		page.Limit = 10
	}
	response.OKPage(c, http.StatusOK, "Shipments retrieved", shipmenthttpmapper.FromDomainShipments(shipments), page)
}

// Get /shipments/driver/my
// List the shipments assigned to the calling driver
func (api *ShipmentAPI) MyShipments(c *gin.Context) {
	actor := actorFrom(c)
	status := shipmentsdomain.Status(c.Query("status"))
	shipments, err := api.service.DriverShipments(c.Request.Context(), actor.ID, status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Shipments retrieved", shipmenthttpmapper.FromDomainShipments(shipments))
}

// Get /shipments/:id
// Fetch one shipment with full history
func (api *ShipmentAPI) GetShipment(c *gin.Context) {
	shipment, err := api.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Shipment retrieved", shipmenthttpmapper.FromDomainShipment(shipment))
}

// Get /shipments/track/:trackingNumber
// Public tracking lookup, reduced view
func (api *ShipmentAPI) TrackShipment(c *gin.Context) {
	shipment, err := api.service.TrackByNumber(c.Request.Context(), c.Param("trackingNumber"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Shipment retrieved", shipmenthttpmapper.FromDomainShipmentPublic(shipment))
}

// Put /shipments/:id
// Update sender, recipient, or package details
func (api *ShipmentAPI) UpdateShipment(c *gin.Context) {
	var payload shipmenthttpmapper.UpdateShipmentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	updated, err := api.service.Update(c.Request.Context(), c.Param("id"), shipmenthttpmapper.ToUpdateFields(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Shipment updated", shipmenthttpmapper.FromDomainShipment(updated))
}

// Put /shipments/:id/status
// Apply one status transition
func (api *ShipmentAPI) UpdateShipmentStatus(c *gin.Context) {
	var payload shipmenthttpmapper.UpdateStatusRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	actor := actorFrom(c)
	input := shipmenthttpmapper.ToUpdateStatusInput(payload, c.GetHeader(HeaderIdempotencyKey))
	updated, err := api.service.UpdateStatus(c.Request.Context(), c.Param("id"), input, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Status updated", shipmenthttpmapper.FromDomainShipment(updated))
}

// Post /shipments/:id/deliver
// Complete a delivery with optional code and evidence
func (api *ShipmentAPI) DeliverShipment(c *gin.Context) {
	var payload shipmenthttpmapper.DeliverRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	actor := actorFrom(c)
	input := shipmenthttpmapper.ToDeliverInput(payload, c.GetHeader(HeaderIdempotencyKey))
	delivered, err := api.service.Deliver(c.Request.Context(), c.Param("id"), input, actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Shipment delivered", shipmenthttpmapper.FromDomainShipment(delivered))
}

// Put /shipments/:id/assign
// Assign or re-assign a driver
func (api *ShipmentAPI) AssignDriver(c *gin.Context) {
	var payload shipmenthttpmapper.AssignDriverRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	updated, err := api.service.AssignDriver(c.Request.Context(), c.Param("id"), payload.DriverID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Driver assigned", shipmenthttpmapper.FromDomainShipment(updated))
}

// Delete /shipments/:id
// Remove a shipment and its history
func (api *ShipmentAPI) DeleteShipment(c *gin.Context) {
	if err := api.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Shipment deleted", nil)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
