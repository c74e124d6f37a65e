package router

import (
	"context"
	"net/http"

	"carbon-registry/internal/application/ledger"
	"carbon-registry/internal/config"
	"carbon-registry/internal/infrastructure/database"
	calchandler "carbon-registry/internal/interfaces/handlers/calculators"
	emhandler "carbon-registry/internal/interfaces/handlers/emissions"
	healthhandler "carbon-registry/internal/interfaces/handlers/health"
	projhandler "carbon-registry/internal/interfaces/handlers/projects"
	"carbon-registry/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	return database.Ping(g.db)
}

// openRedis returns nil when url is empty; request counters are then disabled.
func openRedis(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

// CreateApp opens the ledger database, ensures its schema and wires every route.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	store := ledger.New(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		return nil, nil, nil, err
	}

	rdb, err := openRedis(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if rdb == nil {
		log.Info().Msg("REDIS_URL not set, request counters disabled")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
	})
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.HealthMarker(rdb))

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             &gormDBPinger{db: db},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	api := app.Group("/api/v1")

	// Projects
	ph := &projhandler.Handlers{Store: store}
	pg := api.Group("/projects")
	pg.Get("/active", ph.ListActive)
	pg.Post("/", ph.Create)
	pg.Patch("/:project_id/archive", ph.Archive)

	// Calculators
	ch := &calchandler.Handlers{Store: store}
	cg := api.Group("/calculators")
	cg.Get("/", ch.List)
	cg.Get("/factors", ch.Factors)
	cg.Post("/:code", ch.Calculate)
	cg.Post("/:code/save", ch.Save)

	// Emissions; fixed paths before :emission_id
	eh := &emhandler.Handlers{Store: store}
	eg := api.Group("/emissions")
	eg.Post("/", eh.Create)
	eg.Get("/", eh.List)
	eg.Get("/totals", eh.Totals)
	eg.Get("/export", eh.Export)
	eg.Get("/:emission_id", eh.Get)
	eg.Patch("/:emission_id/notes", eh.UpdateNotes)

	return app, db, rdb, nil
}

// Handler adapts app to net/http.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
