/*
 * Copyright 2026 Sipsentry Contributors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package pbx talks to the telephony switch's HTTP API and turns its
// extension list into a registration roster. All failures degrade to an
// empty roster so a switch outage never stalls the monitoring cycle.
package pbx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sipsentry/sipsentry/pkg/logger"
	"github.com/sipsentry/sipsentry/pkg/models"
)

const (
	loginPath         = "/api/v2.0.0/login"
	extensionListPath = "/api/v2.0.0/extension/list"

	rosterPageSize = 500
	maxRosterPages = 40

	// The switch does not report token lifetime; observed validity is
	// 30 minutes. Refresh within a one-minute safety buffer of expiry.
	tokenTTL          = 30 * time.Minute
	tokenSafetyBuffer = time.Minute

	httpTimeout = 10 * time.Second
)

// Client is the registration adapter. It owns the cached session credential
// and is safe for concurrent use, though the cycle guard means only one
// cycle reads the roster at a time.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     logger.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(config Config, log logger.Logger) *Client {
	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: httpTimeout},
		logger:     log,
	}

	if !c.Enabled() {
		log.Info().Msg("Switch API not configured; registration adapter disabled")
	}

	return c
}

// Enabled reports whether the adapter has a switch endpoint configured.
func (c *Client) Enabled() bool {
	return c.config.URL != ""
}

// Roster fetches the full extension registration list once. It returns an
// empty map when the adapter is disabled or any part of the fetch fails;
// it never returns an error to the caller.
func (c *Client) Roster(ctx context.Context) map[string]models.Registration {
	if !c.Enabled() {
		return map[string]models.Registration{}
	}

	token, err := c.ensureToken(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Switch authentication failed; degrading to probe-only inference")
		return map[string]models.Registration{}
	}

	roster := make(map[string]models.Registration)

	for page := 1; page <= maxRosterPages; page++ {
		entries, err := c.fetchPage(ctx, token, page)
		if err != nil {
			c.logger.Warn().Err(err).Int("page", page).Msg("Roster fetch failed; degrading to probe-only inference")
			return map[string]models.Registration{}
		}

		for _, e := range entries {
			number := strings.TrimSpace(e.Number.String())
			if number == "" {
				continue
			}

			roster[number] = normalizeStatus(e.Status)
		}

		if len(entries) < rosterPageSize {
			break
		}
	}

	c.logger.Debug().Int("extensions", len(roster)).Msg("Fetched registration roster")

	return roster
}

// HealthCheck reports whether the switch is configured and reachable.
func (c *Client) HealthCheck(ctx context.Context) Health {
	if !c.Enabled() {
		return Health{Message: "not configured"}
	}

	if _, err := c.ensureToken(ctx); err != nil {
		return Health{Enabled: true, Message: fmt.Sprintf("authentication failed: %v", err)}
	}

	return Health{Enabled: true, Connected: true, Message: "connected"}
}

// ensureToken returns the cached token, refreshing it lazily when absent or
// within the safety buffer of expiry.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenSafetyBuffer)) {
		return c.token, nil
	}

	token, err := c.login(ctx)
	if err != nil {
		c.token = ""
		c.tokenExpiry = time.Time{}

		return "", err
	}

	c.token = token
	c.tokenExpiry = time.Now().Add(tokenTTL)

	return token, nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(loginRequest{
		Username: c.config.Username,
		Password: c.config.Password,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL+loginPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: %d, response: %s", errUnexpectedStatusCode, resp.StatusCode, string(respBody))
	}

	var loginResp loginResponse

	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", err
	}

	if loginResp.Token == "" {
		return "", errNoToken
	}

	return loginResp.Token, nil
}

func (c *Client) fetchPage(ctx context.Context, token string, page int) ([]extensionEntry, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(rosterPageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.config.URL+extensionListPath+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: %d, response: %s", errUnexpectedStatusCode, resp.StatusCode, string(respBody))
	}

	var listResp extensionListResponse

	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, err
	}

	return listResp.Data, nil
}

func normalizeStatus(status string) models.Registration {
	if strings.EqualFold(strings.TrimSpace(status), "registered") {
		return models.RegistrationRegistered
	}

	return models.RegistrationUnregistered
}
