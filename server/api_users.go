package parcelserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	userhttpmapper "github.com/parceltrack/parcel-api-server/internal/domains/users/adapters/http/mapper"
	usersdomain "github.com/parceltrack/parcel-api-server/internal/domains/users/domain"
	usersports "github.com/parceltrack/parcel-api-server/internal/domains/users/ports"
	"github.com/parceltrack/parcel-api-server/internal/shared/response"
)

// UserAPI wires HTTP transport with the users bounded context service.
type UserAPI struct {
	service usersports.Service
}

// NewUserAPI creates a UserAPI backed by the provided service.
func NewUserAPI(service usersports.Service) UserAPI {
	return UserAPI{service: service}
}

// Post /users
// Register a user
func (api *UserAPI) CreateUser(c *gin.Context) {
	var payload userhttpmapper.CreateUserRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	created, err := api.service.Create(c.Request.Context(), userhttpmapper.ToCreateInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, http.StatusCreated, "User created", userhttpmapper.FromDomainUser(created))
}

// Get /users/:id
// Fetch one user
func (api *UserAPI) GetUser(c *gin.Context) {
	user, err := api.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "User retrieved", userhttpmapper.FromDomainUser(user))
}

// Get /users
// List users by role
func (api *UserAPI) ListUsers(c *gin.Context) {
	role := usersdomain.Role(c.Query("role"))
	users, err := api.service.ListByRole(c.Request.Context(), role)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "Users retrieved", userhttpmapper.FromDomainUsers(users))
}

// Patch /users/:id/active
// Activate or deactivate a user
func (api *UserAPI) SetUserActive(c *gin.Context) {
	var payload userhttpmapper.SetActiveRequest
	if err := c.ShouldBindJSON(&payload); err != nil || payload.IsActive == nil {
		response.Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	updated, err := api.service.SetActive(c.Request.Context(), c.Param("id"), *payload.IsActive)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.OK(c, http.StatusOK, "User updated", userhttpmapper.FromDomainUser(updated))
}
