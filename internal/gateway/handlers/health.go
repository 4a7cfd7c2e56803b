package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// LivenessProbe проверяет, что приложение работает
func LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// StartupProbe проверяет, что приложение успешно запустилось
func StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}

// Readiness опрашивает /health/ready у каждого upstream.
type Readiness struct {
	upstreams map[string]string
	client    *http.Client
}

func NewReadiness(upstreams map[string]string, timeout time.Duration) *Readiness {
	return &Readiness{upstreams: upstreams, client: &http.Client{Timeout: timeout}}
}

// ReadinessProbe готов, только если готовы все upstream сервисы.
func (r *Readiness) ReadinessProbe(c fiber.Ctx) error {
	results := r.check(context.Background())

	ready := true
	for _, state := range results {
		if state != "ready" {
			ready = false
		}
	}

	status := http.StatusOK
	overall := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		overall = "not ready"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":    overall,
		"upstreams": results,
	})
}

func (r *Readiness) check(ctx context.Context) map[string]string {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]string, len(r.upstreams))
	)
	for name, base := range r.upstreams {
		wg.Add(1)
		go func(name, base string) {
			defer wg.Done()
			state := "ready"
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/health/ready", nil)
			if err == nil {
				var resp *http.Response
				resp, err = r.client.Do(req)
				if err == nil {
					resp.Body.Close()
					if resp.StatusCode != http.StatusOK {
						state = "not ready"
					}
				}
			}
			if err != nil {
				state = "unreachable"
			}
			mu.Lock()
			results[name] = state
			mu.Unlock()
		}(name, base)
	}
	wg.Wait()
	return results
}
