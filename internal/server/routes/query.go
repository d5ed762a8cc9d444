package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/conceptlab/genea/internal/server/middleware"
	"github.com/conceptlab/genea/pkg/common"
)

// QueryHandler returns the persisted subgraph around a set of concepts:
// the concepts themselves, every stored relationship touching them and
// the similarity connections among them.
func QueryHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	var req struct {
		ConceptIDs []int64 `json:"concept_ids" validate:"required,min=1"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "concept_ids is required"})
	}

	concepts, err := app.Store.GetConceptsByIDs(ctx, req.ConceptIDs)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	relationships, err := app.Store.ListRelationshipsTouching(ctx, req.ConceptIDs)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	connections, err := app.Store.ListConnectionsAmong(ctx, req.ConceptIDs)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	if concepts == nil {
		concepts = []common.Concept{}
	}
	if relationships == nil {
		relationships = []common.Relationship{}
	}
	if connections == nil {
		connections = []common.Connection{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"concepts":      concepts,
		"relationships": relationships,
		"connections":   connections,
	})
}
