package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/conceptlab/genea/pkg/ai"
	"github.com/conceptlab/genea/pkg/store"
)

type AppUser struct {
	UserID int64
	Role   string
}

// App bundles the shared dependencies every handler needs. It is built
// once at startup; the AI client in particular carries rate-limiting
// state that must not be recreated per request.
type App struct {
	DBConn       *pgxpool.Pool
	Store        store.ConceptStore
	Queue        *amqp091.Channel
	Key          *keyfunc.Keyfunc
	S3           *s3.Client
	AIClient     ai.GenealogyAIClient
	MasterAPIKey string
	AuthEnabled  bool
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
