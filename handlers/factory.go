package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"tours-service/apperr"
	"tours-service/query"
	"tours-service/utils"
)

type lister[T any] interface {
	List(ctx context.Context, q *query.Query) ([]T, error)
}

type getter[T any] interface {
	Get(ctx context.Context, id string) (*T, error)
}

type updater[T any] interface {
	Update(ctx context.Context, id string, body []byte) (*T, error)
}

type deleter interface {
	Delete(ctx context.Context, id string) error
}

// scopeFunc narrows a listing before it reaches the store, e.g. reviews of
// one tour.
type scopeFunc func(c *gin.Context, q *query.Query) error

func getAll[T any](svc lister[T], opts query.Options, scope scopeFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := query.Translate(c.Request.URL.Query(), opts)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if scope != nil {
			if err := scope(c, q); err != nil {
				_ = c.Error(err)
				return
			}
		}

		docs, err := svc.List(c.Request.Context(), q)
		if err != nil {
			_ = c.Error(err)
			return
		}
		out, err := query.ProjectAll(docs, q)
		if err != nil {
			_ = c.Error(err)
			return
		}
		utils.List(c, out)
	}
}

func getOne[T any](svc getter[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		utils.Single(c, http.StatusOK, doc)
	}
}

// updateOne hands the raw body to the service, which decodes it over the
// stored document.
func updateOne[T any](svc updater[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		doc, err := svc.Update(c.Request.Context(), c.Param("id"), body)
		if err != nil {
			_ = c.Error(err)
			return
		}
		utils.Single(c, http.StatusOK, doc)
	}
}

func deleteOne(svc deleter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			_ = c.Error(err)
			return
		}
		utils.NoContent(c)
	}
}

// bindJSON decodes the body into v. An empty body leaves v untouched so the
// service reports the missing fields.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(apperr.Decode(err))
		return false
	}
	return true
}
