package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

// RESTAPI is the default API implementation, fetching the
// authoritative notification list over HTTP with the same bearer
// credential as the push channel.
type RESTAPI struct {
	BaseURL string // e.g. https://host
	Token   string
	Client  *http.Client
}

// NewRESTAPI builds a RESTAPI with a 15s request timeout.
func NewRESTAPI(baseURL, token string) *RESTAPI {
	return &RESTAPI{
		BaseURL: baseURL,
		Token:   token,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// ListNotifications fetches the full notification list, newest first.
func (a *RESTAPI) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/v1/notifications", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list notifications: unexpected status %d", resp.StatusCode)
	}
	var body struct {
		Items []model.Notification `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Items, nil
}
