package overlay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Source отдаёт текущее состояние занятости площадки.
type Source interface {
	Fetch(ctx context.Context, venueID string) (map[string]Entry, error)
}

// KeyFor — ключ hash-а с записями площадки.
func KeyFor(venueID string) string {
	return fmt.Sprintf("occupancy:%s", venueID)
}

// RedisSource читает hash occupancy:<venueID>, поле — unitID, значение — JSON Entry.
type RedisSource struct {
	client *redis.Client
}

func NewRedisSource(client *redis.Client) *RedisSource {
	return &RedisSource{client: client}
}

// NewRedisClient подключается к Redis и проверяет соединение.
// При недоступном сервере возвращает nil: редактор работает без overlay.
func NewRedisClient(addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[OVERLAY] Redis %s unavailable: %v", addr, err)
		client.Close()
		return nil
	}
	return client
}

func (s *RedisSource) Fetch(ctx context.Context, venueID string) (map[string]Entry, error) {
	raw, err := s.client.HGetAll(ctx, KeyFor(venueID)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", KeyFor(venueID), err)
	}
	return DecodeEntries(raw), nil
}

// DecodeEntries разбирает значения hash-а; битые записи пропускаются.
func DecodeEntries(raw map[string]string) map[string]Entry {
	out := make(map[string]Entry, len(raw))
	for unitID, value := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(value), &e); err != nil {
			log.Printf("[OVERLAY] skip entry %s: %v", unitID, err)
			continue
		}
		out[unitID] = e
	}
	return out
}

// ============================================================
// Poller
// ============================================================

// Poller периодически перечитывает Source в Overlay до отмены контекста.
type Poller struct {
	source   Source
	overlay  *Overlay
	venueID  string
	interval time.Duration
}

func NewPoller(source Source, ov *Overlay, venueID string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{source: source, overlay: ov, venueID: venueID, interval: interval}
}

// Refresh делает одно чтение.
func (p *Poller) Refresh(ctx context.Context) error {
	entries, err := p.source.Fetch(ctx, p.venueID)
	if err != nil {
		return err
	}
	p.overlay.Replace(entries)
	return nil
}

func (p *Poller) Run(ctx context.Context) {
	if err := p.Refresh(ctx); err != nil {
		log.Printf("[OVERLAY] venue %s: %v", p.venueID, err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				log.Printf("[OVERLAY] venue %s: %v", p.venueID, err)
			}
		}
	}
}
