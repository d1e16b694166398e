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

// Package models defines the shared types for the extension monitoring engine.
package models

// Reachability is the network-liveness state of an endpoint.
type Reachability string

const (
	ReachabilityUnknown Reachability = "Unknown"
	ReachabilityOnline  Reachability = "Online"
	ReachabilityOffline Reachability = "Offline"
)

// Registration is the SIP registration state of an endpoint.
type Registration string

const (
	RegistrationUnknown      Registration = "Unknown"
	RegistrationRegistered   Registration = "Registered"
	RegistrationUnregistered Registration = "Unregistered"
)

// RegistrationSource records which signal produced the registration status,
// so an authoritative roster answer is distinguishable from a local port
// inference when the two disagree.
type RegistrationSource string

const (
	SourceNone     RegistrationSource = "none"
	SourceRoster   RegistrationSource = "roster"
	SourceInferred RegistrationSource = "inferred"
)

// PortState is the tri-state outcome of the service-port probe.
type PortState int8

const (
	PortUnknown PortState = iota
	PortOpen
	PortClosed
)

// Bool converts a PortState to a nullable boolean for persistence and
// event payloads. Unknown maps to nil.
func (p PortState) Bool() *bool {
	switch p {
	case PortOpen:
		v := true
		return &v
	case PortClosed:
		v := false
		return &v
	default:
		return nil
	}
}

func (p PortState) String() string {
	switch p {
	case PortOpen:
		return "open"
	case PortClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PingOutcome is the per-cycle reachability result recorded in history.
type PingOutcome string

const (
	PingSuccess PingOutcome = "Success"
	PingFailed  PingOutcome = "Failed"
)

// StatusResult is the reconciler's decision for one endpoint in one cycle.
type StatusResult struct {
	Reachability Reachability
	Registration Registration
	Source       RegistrationSource
	Port         PortState
}
