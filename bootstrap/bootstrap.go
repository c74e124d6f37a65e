package bootstrap

import (
	"carbon-registry/internal/config"
	"carbon-registry/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless hosts (the api handler imports this package,
// not internal). DATABASE_URL should name a Postgres server there.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	config.SetupLogging(cfg)
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}
