package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"venue-editor/internal/editor/models"
)

// ============================================================
// HTTP Client
// ============================================================

// Client ходит в сервис планов: GET/PUT {base}/venues/{id}/scene.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) sceneURL(venueID string) string {
	return fmt.Sprintf("%s/venues/%s/scene", c.baseURL, url.PathEscape(venueID))
}

func (c *Client) LoadScene(ctx context.Context, venueID string) (models.SceneData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sceneURL(venueID), nil)
	if err != nil {
		return models.SceneData{}, &Error{Op: "load", VenueID: venueID, Err: err}
	}

	var data models.SceneData
	if err := c.do(req, &data); err != nil {
		return models.SceneData{}, &Error{Op: "load", VenueID: venueID, Err: err}
	}
	data.VenueID = venueID
	return data, nil
}

func (c *Client) SaveScene(ctx context.Context, patch models.ScenePatch) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return &Error{Op: "save", VenueID: patch.VenueID, Err: fmt.Errorf("marshal patch: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.sceneURL(patch.VenueID), bytes.NewReader(body))
	if err != nil {
		return &Error{Op: "save", VenueID: patch.VenueID, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(req, nil); err != nil {
		return &Error{Op: "save", VenueID: patch.VenueID, Err: err}
	}
	log.Printf("[PERSISTENCE] saved %s: %d units, %d zones", patch.VenueID, len(patch.SeatingUnits), len(patch.ZoneRegions))
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 300:
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, payload.Error)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
