package queue

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conceptlab/genea/pkg/cluster"
	"github.com/conceptlab/genea/pkg/logger"
	pgxstore "github.com/conceptlab/genea/pkg/store/pgx"
)

// ProcessClusterMessage reclusters all concept vectors. The body may carry
// a custom similarity threshold; anything else uses the default.
func ProcessClusterMessage(ctx context.Context, pg *pgxpool.Pool, body string) error {
	threshold := cluster.DefaultThreshold
	if trimmed := strings.TrimSpace(body); trimmed != "" {
		if parsed, err := strconv.ParseFloat(trimmed, 64); err == nil {
			threshold = parsed
		} else {
			logger.Warn("Invalid cluster threshold in message, using default", "body", body)
		}
	}

	engine := cluster.NewEngine(pgxstore.New(pg), threshold)
	_, err := engine.Run(ctx)
	return err
}
