package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// CORS разрешает все источники в development и только allowed в остальных окружениях.
func CORS(env string, allowed ...string) fiber.Handler {
	origins := []string{"*"}
	if env != "development" && len(allowed) > 0 {
		origins = allowed
	}
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	})
}
