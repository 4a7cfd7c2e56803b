package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"venue-editor/internal/editor/menu"
	"venue-editor/internal/editor/models"
	"venue-editor/internal/editor/overlay"

	"github.com/nats-io/nats.go"
)

// ErrInvalidVenue — id площадки нельзя подставить в субъект.
var ErrInvalidVenue = errors.New("invalid venue id for subject")

func IntentSubject(venueID string) string    { return fmt.Sprintf("venue.%s.intents", venueID) }
func OccupancySubject(venueID string) string { return fmt.Sprintf("venue.%s.occupancy", venueID) }

// Connect подключается к NATS с бесконечным переподключением.
func Connect(url, name string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("[NATS] Disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[NATS] Reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Printf("[NATS] Error: %v", err)
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	if !conn.IsConnected() {
		conn.Close()
		return nil, fmt.Errorf("nats connection not established")
	}
	return conn, nil
}

// Publisher — минимальная часть *nats.Conn, нужная для публикации.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// IntentPublisher отправляет выбранные в меню действия во внешний workflow.
type IntentPublisher struct {
	conn Publisher
}

func NewIntentPublisher(conn Publisher) *IntentPublisher {
	return &IntentPublisher{conn: conn}
}

func (p *IntentPublisher) Publish(ctx context.Context, intent menu.Intent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !models.ValidVenueID(intent.VenueID) {
		return fmt.Errorf("%w: %q", ErrInvalidVenue, intent.VenueID)
	}
	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}

	subject := IntentSubject(intent.VenueID)
	const maxRetries = 3
	for i := 0; ; i++ {
		err = p.conn.Publish(subject, data)
		if err == nil {
			break
		}
		if i == maxRetries-1 {
			return fmt.Errorf("publish %s after %d attempts: %w", subject, maxRetries, err)
		}
		log.Printf("[NATS] Retry %d/%d: publish %s: %v", i+1, maxRetries, subject, err)
		time.Sleep(100 * time.Millisecond)
	}

	log.Printf("[NATS] intent %s for %s on %s", intent.ActionKey, intent.EntityID, subject)
	return nil
}

// OccupancyUpdate — сообщение о смене статусов юнитов.
type OccupancyUpdate struct {
	Full    bool                     `json:"full"`
	Entries map[string]overlay.Entry `json:"entries"`
}

// HandleOccupancy применяет сообщение к overlay.
func HandleOccupancy(ov *overlay.Overlay, data []byte) error {
	var upd OccupancyUpdate
	if err := json.Unmarshal(data, &upd); err != nil {
		return fmt.Errorf("parse occupancy update: %w", err)
	}
	if upd.Full {
		ov.Replace(upd.Entries)
	} else {
		ov.Apply(upd.Entries)
	}
	return nil
}

// SubscribeOverlay подписывает overlay на живые обновления площадки.
func SubscribeOverlay(conn *nats.Conn, venueID string, ov *overlay.Overlay) (*nats.Subscription, error) {
	if !models.ValidVenueID(venueID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVenue, venueID)
	}
	sub, err := conn.Subscribe(OccupancySubject(venueID), func(msg *nats.Msg) {
		if err := HandleOccupancy(ov, msg.Data); err != nil {
			log.Printf("[NATS] %s: %v", msg.Subject, err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", OccupancySubject(venueID), err)
	}
	return sub, nil
}
