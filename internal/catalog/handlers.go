package catalog

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, client *Client) {
	r.Get("/search", func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return fiber.NewError(fiber.StatusBadRequest, "search query is required")
		}
		tracks, err := client.Search(c.Context(), query)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"tracks": tracks})
	})
}
