package routes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/conceptlab/genea/internal/queue"
	"github.com/conceptlab/genea/internal/server/middleware"
	"github.com/conceptlab/genea/pkg/cluster"
)

// ClusterHandler reclusters all concept vectors. The default run is
// synchronous and returns the run summary; async=true queues the run for
// the worker instead.
func ClusterHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	var req struct {
		Threshold float64 `json:"threshold"`
		Async     bool    `json:"async"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if req.Async {
		body := ""
		if req.Threshold > 0 {
			body = strconv.FormatFloat(req.Threshold, 'f', -1, 64)
		}
		if err := queue.PublishFIFO(app.Queue, queue.ClusterQueue, []byte(body)); err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
	}

	engine := cluster.NewEngine(app.Store, req.Threshold)
	result, err := engine.Run(c.Request().Context())
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, result)
}
