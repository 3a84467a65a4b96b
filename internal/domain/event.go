package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Message header names.
const (
	HeaderEventType = "event_type"
	HeaderStatus    = "status"
	HeaderGenerated = "generated_at_utc"
)

// Message event types.
const (
	EventCoverageResult = "coverage_result"
	EventMakeLookup     = "make_lookup"
)

// ResultEvent serializes one coverage result for the message sink. The key
// identifies the fleet variant so later runs overwrite earlier ones on a
// compacted topic.
func ResultEvent(r MatchResult) (OutputEvent, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize coverage result: %w", err)
	}
	key := r.Make + "|" + r.GenModel + "|" + r.Model + "|" + strconv.Itoa(r.Year)
	return OutputEvent{
		Key:   []byte(key),
		Value: data,
		Headers: map[string]string{
			HeaderEventType: EventCoverageResult,
			HeaderStatus:    string(r.Status),
		},
	}, nil
}

// makeLookupMessage is the message body for one make of the lookup.
type makeLookupMessage struct {
	Make string `json:"make"`
	MakeLookup
}

// LookupEvents serializes every make of lookup for the message sink, ordered
// by make key.
func LookupEvents(lookup Lookup) ([]OutputEvent, error) {
	keys := make([]string, 0, len(lookup.ByMake))
	for k := range lookup.ByMake {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	events := make([]OutputEvent, 0, len(keys))
	for _, k := range keys {
		data, err := json.Marshal(makeLookupMessage{Make: k, MakeLookup: lookup.ByMake[k]})
		if err != nil {
			return nil, fmt.Errorf("serialize lookup for make %q: %w", k, err)
		}
		events = append(events, OutputEvent{
			Key:   []byte(k),
			Value: data,
			Headers: map[string]string{
				HeaderEventType: EventMakeLookup,
				HeaderGenerated: lookup.GeneratedAtUTC,
			},
		})
	}
	return events, nil
}
