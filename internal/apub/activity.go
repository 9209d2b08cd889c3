package apub

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Activity types the dispatcher cares about. Anything else is ignored.
const (
	TypeFollow   = "Follow"
	TypeUndo     = "Undo"
	TypeCreate   = "Create"
	TypeAnnounce = "Announce"
	TypeAccept   = "Accept"
	TypePerson   = "Person"
	TypeNote     = "Note"
	TypeMention  = "Mention"
)

// Activity is an inbound activity with its object payload resolved at parse
// time into exactly one typed variant. Activities are transient: handlers
// must be idempotent because the protocol gives no ordering or exactly-once
// guarantee.
type Activity struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Actor string `json:"actor"`

	// Exactly one of the following is set, depending on the object shape.
	ObjectRef    string        // object was a bare URI
	ObjectFollow *FollowObject // object was a Follow-shaped document
	ObjectNote   *Note         // object was a structured note

	raw json.RawMessage
}

type activityEnvelope struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Actor  string          `json:"actor"`
	Object json.RawMessage `json:"object"`
}

// ParseActivity decodes an inbound activity body. A missing or unknown type
// is not an error here; classification happens in the dispatcher.
func ParseActivity(body []byte) (*Activity, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("empty activity body")
	}

	var envelope activityEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse activity: %w", err)
	}
	if envelope.Type == "" {
		return nil, fmt.Errorf("activity has no type")
	}

	activity := &Activity{
		ID:    envelope.ID,
		Type:  envelope.Type,
		Actor: envelope.Actor,
		raw:   json.RawMessage(body),
	}

	if err := activity.resolveObject(envelope.Object); err != nil {
		return nil, err
	}
	return activity, nil
}

func (a *Activity) resolveObject(raw json.RawMessage) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		return json.Unmarshal(raw, &a.ObjectRef)
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("failed to parse activity object: %w", err)
	}

	if probe.Type == TypeFollow {
		a.ObjectFollow = &FollowObject{}
		return json.Unmarshal(raw, a.ObjectFollow)
	}

	a.ObjectNote = &Note{}
	return json.Unmarshal(raw, a.ObjectNote)
}

// ObjectURI returns the URI the activity targets: the bare object reference,
// or the note id for structured objects.
func (a *Activity) ObjectURI() string {
	switch {
	case a.ObjectRef != "":
		return a.ObjectRef
	case a.ObjectNote != nil:
		return a.ObjectNote.ID
	case a.ObjectFollow != nil:
		return a.ObjectFollow.Object
	default:
		return ""
	}
}

// Raw returns the activity exactly as it arrived on the wire.
func (a *Activity) Raw() []byte {
	return a.raw
}
