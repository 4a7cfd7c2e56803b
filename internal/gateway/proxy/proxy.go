package proxy

import (
	"bytes"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Proxy Handler
// ============================================================

// заголовки запроса, которые уходят в upstream
var forwardHeaders = []string{"Content-Type", "Accept", "Authorization"}

// заголовки ответа, которые не копируются обратно
var hopHeaders = map[string]bool{
	"Connection":        true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Content-Length":    true,
}

type Proxy struct {
	client *http.Client
}

func New(timeout time.Duration) *Proxy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Proxy{client: &http.Client{Timeout: timeout}}
}

// Mount проксирует всё под prefix на baseURL, сохраняя хвост пути и query.
func (p *Proxy) Mount(r fiber.Router, prefix, baseURL string) {
	base := strings.TrimRight(baseURL, "/")
	r.All(prefix+"/*", func(c fiber.Ctx) error {
		target := base + "/" + c.Params("*")
		if q := string(c.Request().URI().QueryString()); q != "" {
			target += "?" + q
		}
		return p.Forward(c, target)
	})
}

// Forward проксирует запрос любым методом. Тело (в том числе
// multipart) уходит как есть вместе с Content-Type.
func (p *Proxy) Forward(c fiber.Ctx, targetURL string) error {
	log.Printf("[PROXY] %s %s -> %s (%d bytes)", c.Method(), c.Path(), targetURL, len(c.Body()))

	req, err := http.NewRequest(c.Method(), targetURL, bytes.NewReader(c.Body()))
	if err != nil {
		log.Printf("[PROXY] build request error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}
	for _, h := range forwardHeaders {
		if v := c.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("[PROXY] Error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[PROXY] Read response error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if len(values) > 0 && !hopHeaders[key] {
			c.Set(key, values[0])
		}
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
