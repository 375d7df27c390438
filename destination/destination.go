// Package destination resolves provider addressing targets from canonical
// envelopes. Resolution is pure: the same envelope and default room always
// yield the same target or the same error.
package destination

import (
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-messaging-providers/core"
)

// Kind is the resolved addressing mode.
type Kind string

const (
	KindRoom        Kind = "room"
	KindPersonID    Kind = "person_id"
	KindPersonEmail Kind = "person_email"
)

const ErrorDestinationRequired = "MESSAGING_DESTINATION_REQUIRED"

// ErrDestinationRequired is returned when neither a recipient nor a default
// room is available.
var ErrDestinationRequired = goerrors.New("destination required", goerrors.CategoryValidation).
	WithCode(400).
	WithTextCode(ErrorDestinationRequired)

// Target is a single resolved destination.
type Target struct {
	Kind Kind
	ID   string
}

var kindVocabulary = map[string]Kind{
	"room":         KindRoom,
	"personId":     KindPersonID,
	"person_id":    KindPersonID,
	"user":         KindPersonID,
	"personEmail":  KindPersonEmail,
	"person_email": KindPersonEmail,
	"email":        KindPersonEmail,
}

// MapKind maps an explicit destination kind through the fixed vocabulary.
func MapKind(kind string) (Kind, bool) {
	mapped, ok := kindVocabulary[kind]
	return mapped, ok
}

type inferenceRule struct {
	marker string
	kind   Kind
}

// The people marker maps to person-by-email, matching the fallback: ids
// with a people marker are never addressed as person ids by inference.
var inferenceRules = []inferenceRule{
	{marker: "/ROOM/", kind: KindRoom},
	{marker: "/PEOPLE/", kind: KindPersonEmail},
}

const inferenceFallback = KindPersonEmail

// InferKind classifies an id without an explicit kind.
func InferKind(id string) Kind {
	for _, rule := range inferenceRules {
		if strings.Contains(id, rule.marker) {
			return rule.kind
		}
	}
	return inferenceFallback
}

// Map resolves a single recipient. A blank id yields ErrDestinationRequired;
// an unknown explicit kind is rejected.
func Map(dest core.Destination) (Target, error) {
	if strings.TrimSpace(dest.ID) == "" {
		return Target{}, ErrDestinationRequired
	}
	if dest.Kind == "" {
		return Target{Kind: InferKind(dest.ID), ID: dest.ID}, nil
	}
	kind, ok := MapKind(dest.Kind)
	if !ok {
		return Target{}, core.ValidationError(fmt.Sprintf("unsupported destination kind: %s", dest.Kind))
	}
	return Target{Kind: kind, ID: dest.ID}, nil
}

// Resolve picks the first recipient with a non-blank id, falling back to
// defaultRoomID. It returns exactly one of a target or an error.
func Resolve(envelope core.ChannelMessageEnvelope, defaultRoomID string) (Target, error) {
	for _, dest := range envelope.To {
		if strings.TrimSpace(dest.ID) == "" {
			continue
		}
		return Map(dest)
	}
	if strings.TrimSpace(defaultRoomID) != "" {
		return Target{Kind: KindRoom, ID: defaultRoomID}, nil
	}
	return Target{}, ErrDestinationRequired
}

// IsDestinationRequired reports whether err is the canonical missing
// destination failure.
func IsDestinationRequired(err error) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil {
		return richErr.TextCode == ErrorDestinationRequired
	}
	return false
}
