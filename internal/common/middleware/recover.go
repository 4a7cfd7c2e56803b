package middleware

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// Recover перехватывает панику обработчика и пишет её в лог.
func Recover(service string) fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf("[%s] panic on %s %s: %v", service, c.Method(), c.Path(), e)
		},
	})
}
