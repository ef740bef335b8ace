// services/waitlist_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wellness-entitlements/logger"
	"wellness-entitlements/models"
)

// WaitlistClient talks to the external waitlist service. The service is
// idempotent on email and does its own rate limiting.
type WaitlistClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
	log     *logger.Logger
}

func NewWaitlistClient(baseURL, token string, log *logger.Logger) *WaitlistClient {
	return &WaitlistClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log.With("service", "WaitlistClient"),
	}
}

// NormalizeEmail trims email and rejects values that can't be an address.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return email, nil
}

// SubmitEntry registers email (optionally with the referrer's code and a source tag).
func (c *WaitlistClient) SubmitEntry(ctx context.Context, email, referralCode, source string) (*models.WaitlistEntry, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]interface{}{"email": email}
	if referralCode != "" {
		reqBody["referral_code"] = referralCode
	}
	if source != "" {
		reqBody["source"] = source
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/waitlist", bytes.NewReader(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("waitlist request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("waitlist service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out models.WaitlistEntry
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode waitlist response: %w", err)
	}
	return &out, nil
}

// SubmitAsync fires SubmitEntry without waiting; the outcome is only logged.
func (c *WaitlistClient) SubmitAsync(email, referralCode, source string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.Client.Timeout)
		defer cancel()
		entry, err := c.SubmitEntry(ctx, email, referralCode, source)
		if err != nil {
			c.log.Warn("Waitlist submission failed", "source", source, "error", err)
			return
		}
		c.log.Info("Waitlist submission accepted", "position", entry.Position, "source", source)
	}()
}
