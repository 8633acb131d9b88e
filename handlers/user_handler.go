package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tours-service/query"
	"tours-service/services"
	"tours-service/utils"
)

type UserHandler struct {
	users *services.UserService
	opts  query.Options
}

func NewUserHandler(users *services.UserService, opts query.Options) *UserHandler {
	return &UserHandler{users: users, opts: opts}
}

func (h *UserHandler) GetAll() gin.HandlerFunc { return getAll(h.users, h.opts, nil) }
func (h *UserHandler) Get() gin.HandlerFunc    { return getOne(h.users) }
func (h *UserHandler) Update() gin.HandlerFunc { return updateOne(h.users) }
func (h *UserHandler) Delete() gin.HandlerFunc { return deleteOne(h.users) }

// Create is the admin path: the role comes from the body and no session is
// issued.
func (h *UserHandler) Create(c *gin.Context) {
	var in services.CreateUserInput
	if !bindJSON(c, &in) {
		return
	}
	user, err := h.users.Create(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.Single(c, http.StatusCreated, user)
}
