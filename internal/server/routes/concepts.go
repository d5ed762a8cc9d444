package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/conceptlab/genea/internal/server/middleware"
	"github.com/conceptlab/genea/pkg/common"
	"github.com/conceptlab/genea/pkg/genealogy"
	"github.com/conceptlab/genea/pkg/store"
)

func GetConceptsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	concepts, err := app.Store.ListConcepts(c.Request().Context())
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	if concepts == nil {
		concepts = []common.ConceptRef{}
	}
	return c.JSON(http.StatusOK, concepts)
}

// AnalyzeConceptHandler synthesizes the genealogy graph for one concept.
func AnalyzeConceptHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	conceptID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid concept id"})
	}

	engine := genealogy.NewEngine(app.AIClient, app.Store)
	graph, err := engine.Analyze(c.Request().Context(), conceptID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "concept not found"})
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, graph)
}
