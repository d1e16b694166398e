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

package pbx

import "encoding/json"

// Config holds the switch API settings. An empty URL disables the adapter.
type Config struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type extensionListResponse struct {
	Data []extensionEntry `json:"data"`
}

// extensionEntry is one row of the switch's extension list. Number is a
// json.Number because some firmware versions emit it unquoted.
type extensionEntry struct {
	Number json.Number `json:"number"`
	Status string      `json:"status"`
	IPAddr string      `json:"ip_addr"`
}

// Health reports adapter availability for startup diagnostics.
type Health struct {
	Enabled   bool   `json:"enabled"`
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}
