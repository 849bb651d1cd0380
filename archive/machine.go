// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package archive

import "strings"

const (
	recordMarker        = "WARC/1.0"
	targetURIPrefix     = "WARC-Target-URI: "
	contentLengthPrefix = "Content-Length: "

	// initialPrevLine stands in for the line before the first one. It is not
	// empty, so a record marker on the very first line does not open a record.
	initialPrevLine = "\x00"
)

// State is the position of the parser within an archive record.
type State int

const (
	// AwaitingHeader is the state before the first recognised record.
	AwaitingHeader State = iota
	// InHeader is the state between the record marker and the length header.
	InHeader
	// AwaitingBodyStart waits for the blank line separating header and body.
	AwaitingBodyStart
	// InBody is the state in which every line is a content candidate.
	InBody
)

func (s State) String() string {
	switch s {
	case AwaitingHeader:
		return "awaiting-header"
	case InHeader:
		return "in-header"
	case AwaitingBodyStart:
		return "awaiting-body-start"
	case InBody:
		return "in-body"
	default:
		return "unknown"
	}
}

// EventKind distinguishes parser events.
type EventKind int

const (
	// PageFound is emitted when a record header names its target URI.
	PageFound EventKind = iota + 1
	// ContentFound is emitted for each qualifying body line.
	ContentFound
)

// Event is an output of Step.
type Event struct {
	Kind EventKind
	URL  string
	// Line and Normalized are set for ContentFound only.
	Line       string
	Normalized string
}

// Machine is the parser state carried from one line to the next.
type Machine struct {
	State    State
	PrevLine string
	URL      string
}

// NewMachine returns the machine for the start of a file.
func NewMachine() Machine {
	return Machine{State: AwaitingHeader, PrevLine: initialPrevLine}
}

// Step applies one line to m and returns the next machine and any events.
// Step has no side effects.
func Step(m Machine, line string) (Machine, []Event) {
	next := m
	var events []Event

	if strings.HasPrefix(line, recordMarker) && m.PrevLine == "" {
		next.State = InHeader
		next.URL = ""
	}

	switch next.State {
	case InBody:
		// URL is empty when the record names no target; the line still counts.
		if normalized, ok := Qualify(line); ok {
			events = append(events, Event{
				Kind:       ContentFound,
				URL:        next.URL,
				Line:       line,
				Normalized: normalized,
			})
		}
	case AwaitingBodyStart:
		if line == "" {
			next.State = InBody
		}
	case InHeader:
		if uri, ok := strings.CutPrefix(line, targetURIPrefix); ok {
			next.URL = uri
			events = append(events, Event{Kind: PageFound, URL: uri})
		}
		if strings.HasPrefix(line, contentLengthPrefix) {
			next.State = AwaitingBodyStart
		}
	}

	next.PrevLine = line
	return next, events
}
