package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/apperr"
	"tours-service/middleware"
	"tours-service/query"
	"tours-service/services"
	"tours-service/utils"
)

// ReviewHandler serves /reviews and the nested /tours/:id/reviews routes. On
// nested routes the "id" param is the tour id.
type ReviewHandler struct {
	reviews *services.ReviewService
	opts    query.Options
}

func NewReviewHandler(reviews *services.ReviewService, opts query.Options) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, opts: opts}
}

func (h *ReviewHandler) GetAll() gin.HandlerFunc { return getAll(h.reviews, h.opts, nil) }
func (h *ReviewHandler) Get() gin.HandlerFunc    { return getOne(h.reviews) }
func (h *ReviewHandler) Update() gin.HandlerFunc { return updateOne(h.reviews) }
func (h *ReviewHandler) Delete() gin.HandlerFunc { return deleteOne(h.reviews) }

func (h *ReviewHandler) GetAllForTour() gin.HandlerFunc {
	return getAll(h.reviews, h.opts, func(c *gin.Context, q *query.Query) error {
		raw := c.Param("id")
		tourID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return apperr.Validationf("Invalid _id: %s", raw)
		}
		q.Where("tour", tourID)
		return nil
	})
}

func (h *ReviewHandler) Create(c *gin.Context) {
	var in services.CreateReviewInput
	if !bindJSON(c, &in) {
		return
	}
	review, err := h.reviews.Create(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.Single(c, http.StatusCreated, review)
}
