package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
	"github.com/Hackeries/AlgoRise-sub002/app/repository"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/arena"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/cache"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/database"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/env"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/judge"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/router"
)

func main() {
	app := NewApplication()

	// Stop matchmaking and flush pending counters before the listener dies.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		arena.GetManager().Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	repository.InitializeFactory(db)
	if err := models.EnsureDefaultPlans(db); err != nil {
		log.Printf("Failed to seed plans: %v", err)
	}

	repos := repository.GetGlobalRepositories()
	arena.Configure(arena.NewDBMatchStore(repos.ArenaMatch, repos.Problem))
	arena.GetManager().Start()

	go seedProblemCatalog(repos)

	app := fiber.New(fiber.Config{
		AppName: "AlgoRise",
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}

// seedProblemCatalog fills an empty catalog from the judge on first boot so
// recommendations and the arena have problems to deal. Later refreshes go
// through the admin sync endpoint.
func seedProblemCatalog(repos *repository.Repositories) {
	count, err := repos.Problem.Count()
	if err != nil || count > 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	problems, err := judge.NewCodeforcesClientFromEnv().GetProblems(ctx)
	if err != nil {
		log.Printf("Problem catalog seed skipped: %v", err)
		return
	}
	if err := repos.Problem.Upsert(problems); err != nil {
		log.Printf("Problem catalog seed failed: %v", err)
		return
	}
	log.Printf("Problem catalog seeded with %d problems", len(problems))
}
