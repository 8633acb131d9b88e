package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tours-service/models"
	"tours-service/query"
	"tours-service/services"
	"tours-service/utils"
)

const topCheapestSort = "price,-ratingsAverage"

type TourHandler struct {
	tours *services.TourService
	opts  query.Options
}

func NewTourHandler(tours *services.TourService, opts query.Options) *TourHandler {
	return &TourHandler{tours: tours, opts: opts}
}

func (h *TourHandler) GetAll() gin.HandlerFunc { return getAll(h.tours, h.opts, nil) }
func (h *TourHandler) Get() gin.HandlerFunc    { return getOne(h.tours) }
func (h *TourHandler) Update() gin.HandlerFunc { return updateOne(h.tours) }
func (h *TourHandler) Delete() gin.HandlerFunc { return deleteOne(h.tours) }

// TopCheapest rewrites the query so the regular listing returns the cheapest,
// best rated tours first.
func TopCheapest() gin.HandlerFunc {
	return func(c *gin.Context) {
		values := c.Request.URL.Query()
		values.Set("sort", topCheapestSort)
		c.Request.URL.RawQuery = values.Encode()
		c.Next()
	}
}

func (h *TourHandler) Create(c *gin.Context) {
	var tour models.Tour
	if !bindJSON(c, &tour) {
		return
	}
	created, err := h.tours.Create(c.Request.Context(), &tour)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.Single(c, http.StatusCreated, created)
}

func (h *TourHandler) Stats(c *gin.Context) {
	stats, err := h.tours.Stats(c.Request.Context(), c.Param("year"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.Data(c, http.StatusOK, gin.H{"stats": stats})
}

func (h *TourHandler) Within(c *gin.Context) {
	tours, err := h.tours.Within(c.Request.Context(), c.Param("distance"), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.List(c, tours)
}

func (h *TourHandler) Distances(c *gin.Context) {
	distances, err := h.tours.Distances(c.Request.Context(), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.List(c, distances)
}
