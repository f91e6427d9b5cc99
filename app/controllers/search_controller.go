package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/database"
	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/search"
)

// HandleSearch runs categorized search over problems and users.
// GET /api/v1/search?q=two+sum&categories=problems&limit=20&metadata=true
func HandleSearch(c *fiber.Ctx) error {
	db := database.GetDB()
	if db == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "storage_unavailable"})
	}

	svc := search.NewService(db)
	results, err := svc.Search(c.Context(), c.Query("q"), search.Options{
		Categories:   search.ParseCategories(c.Query("categories")),
		Limit:        c.QueryInt("limit", search.DefaultLimit),
		WithMetadata: c.QueryBool("metadata"),
	})
	if err != nil {
		log.Errorf("[Search] Query failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "search_failed"})
	}
	return c.JSON(results)
}
