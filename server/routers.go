// Package parcelserver exposes the HTTP surface of the parcel tracking API.
package parcelserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	usersdomain "github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
	"github.com/parceltrack/parcel-api-server/internal/shared/response"
)

// Route is the information for every API endpoint.
type Route struct {
	Name        string
	Method      string
	Pattern     string
	Middlewares []gin.HandlerFunc
	HandlerFunc gin.HandlerFunc
}

// Routes is a map of defined API endpoints.
type Routes map[string][]Route

// ApiHandleFunctions holds the API handler implementations the router binds.
type ApiHandleFunctions struct {
	ShipmentAPI ShipmentAPI
	UserAPI     UserAPI
}

// NewRouter returns a new gin router with all API routes registered.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the API routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, routes := range getRoutes(handleFunctions) {
		for _, route := range routes {
			if route.HandlerFunc == nil {
				route.HandlerFunc = defaultHandleFunc
			}
			handlers := append(append([]gin.HandlerFunc{}, route.Middlewares...), route.HandlerFunc)
			router.Handle(route.Method, route.Pattern, handlers...)
		}
	}
	return router
}

// defaultHandleFunc answers for routes without a bound implementation.
func defaultHandleFunc(c *gin.Context) {
	response.Fail(c, http.StatusNotImplemented, "Not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) Routes {
	adminOnly := []gin.HandlerFunc{RequireActor(), RequireRole(usersdomain.RoleAdmin)}
	staff := []gin.HandlerFunc{RequireActor(), RequireRole(usersdomain.RoleAdmin, usersdomain.RoleDispatcher)}
	driverOnly := []gin.HandlerFunc{RequireActor(), RequireRole(usersdomain.RoleDriver)}
	authenticated := []gin.HandlerFunc{RequireActor()}

	return Routes{
		"HealthAPI": {
			{
				Name:        "Healthz",
				Method:      http.MethodGet,
				Pattern:     "/healthz",
				HandlerFunc: healthz,
			},
		},
		"ShipmentAPI": {
			{
				Name:        "CreateShipment",
				Method:      http.MethodPost,
				Pattern:     "/shipments",
				Middlewares: staff,
				HandlerFunc: handleFunctions.ShipmentAPI.CreateShipment,
			},
			{
				Name:        "ListShipments",
				Method:      http.MethodGet,
				Pattern:     "/shipments",
				Middlewares: authenticated,
				HandlerFunc: handleFunctions.ShipmentAPI.ListShipments,
			},
			{
				Name:        "TrackShipment",
				Method:      http.MethodGet,
				Pattern:     "/shipments/track/:trackingNumber",
				HandlerFunc: handleFunctions.ShipmentAPI.TrackShipment,
			},
			{
				Name:        "MyShipments",
				Method:      http.MethodGet,
				Pattern:     "/shipments/driver/my",
				Middlewares: driverOnly,
				HandlerFunc: handleFunctions.ShipmentAPI.MyShipments,
			},
			{
				Name:        "GetShipment",
				Method:      http.MethodGet,
				Pattern:     "/shipments/:id",
				Middlewares: authenticated,
				HandlerFunc: handleFunctions.ShipmentAPI.GetShipment,
			},
			{
				Name:        "UpdateShipment",
				Method:      http.MethodPut,
				Pattern:     "/shipments/:id",
				Middlewares: staff,
				HandlerFunc: handleFunctions.ShipmentAPI.UpdateShipment,
			},
			{
				Name:        "UpdateShipmentStatus",
				Method:      http.MethodPut,
				Pattern:     "/shipments/:id/status",
				Middlewares: authenticated,
				HandlerFunc: handleFunctions.ShipmentAPI.UpdateShipmentStatus,
			},
			{
				Name:        "DeliverShipment",
				Method:      http.MethodPost,
				Pattern:     "/shipments/:id/deliver",
				Middlewares: driverOnly,
				HandlerFunc: handleFunctions.ShipmentAPI.DeliverShipment,
			},
			{
				Name:        "AssignDriver",
				Method:      http.MethodPut,
				Pattern:     "/shipments/:id/assign",
				Middlewares: staff,
				HandlerFunc: handleFunctions.ShipmentAPI.AssignDriver,
			},
			{
				Name:        "DeleteShipment",
				Method:      http.MethodDelete,
				Pattern:     "/shipments/:id",
				Middlewares: adminOnly,
				HandlerFunc: handleFunctions.ShipmentAPI.DeleteShipment,
			},
		},
		"UserAPI": {
			{
				Name:        "CreateUser",
				Method:      http.MethodPost,
				Pattern:     "/users",
				Middlewares: adminOnly,
				HandlerFunc: handleFunctions.UserAPI.CreateUser,
			},
			{
				Name:        "ListUsers",
				Method:      http.MethodGet,
				Pattern:     "/users",
				Middlewares: staff,
				HandlerFunc: handleFunctions.UserAPI.ListUsers,
			},
			{
				Name:        "GetUser",
				Method:      http.MethodGet,
				Pattern:     "/users/:id",
				Middlewares: authenticated,
				HandlerFunc: handleFunctions.UserAPI.GetUser,
			},
			{
				Name:        "SetUserActive",
				Method:      http.MethodPatch,
				Pattern:     "/users/:id/active",
				Middlewares: adminOnly,
				HandlerFunc: handleFunctions.UserAPI.SetUserActive,
			},
		},
	}
}

// healthz is the liveness probe; the driver client also polls it to detect
// restored connectivity.
func healthz(c *gin.Context) {
	response.OK(c, http.StatusOK, "ok", nil)
}
