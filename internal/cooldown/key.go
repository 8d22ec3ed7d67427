// Package cooldown suppresses chronically low-performing entities for a
// period that grows with every repeat offence.
package cooldown

import (
	"fmt"
	"strings"
)

// Kind is the cooldown dimension.
type Kind string

// The four independent dimensions.
const (
	KindImage      Kind = "img"
	KindThumb      Kind = "tv"
	KindTopicImage Kind = "ts"
	KindTopicThumb Kind = "tt"
)

// Scoped reports whether keys of this kind carry a topic.
func (k Kind) Scoped() bool {
	return k == KindTopicImage || k == KindTopicThumb
}

// Valid reports whether k is one of the four dimensions.
func (k Kind) Valid() bool {
	switch k {
	case KindImage, KindThumb, KindTopicImage, KindTopicThumb:
		return true
	default:
		return false
	}
}

// Key identifies one entity in one dimension. Keys compare structurally; the
// string form is only used for persistence.
type Key struct {
	Kind  Kind
	Topic string
	ID    string
}

// ImageKey returns the global image-style key.
func ImageKey(id string) Key { return Key{Kind: KindImage, ID: id} }

// ThumbKey returns the global thumbnail-variant key.
func ThumbKey(id string) Key { return Key{Kind: KindThumb, ID: id} }

// TopicImageKey returns the topic×image key.
func TopicImageKey(topic, id string) Key { return Key{Kind: KindTopicImage, Topic: topic, ID: id} }

// TopicThumbKey returns the topic×thumbnail key.
func TopicThumbKey(topic, id string) Key { return Key{Kind: KindTopicThumb, Topic: topic, ID: id} }

// ':' separates components and '%' escapes, so both are percent-encoded
// inside components. Identifiers without them keep their plain form.
var (
	escaper   = strings.NewReplacer("%", "%25", ":", "%3A")
	unescaper = strings.NewReplacer("%3A", ":", "%3a", ":", "%25", "%")
)

// String returns the persisted form: "img:<id>", "tv:<id>",
// "ts:<topic>:<id>" or "tt:<topic>:<id>".
func (k Key) String() string {
	if k.Kind.Scoped() {
		return string(k.Kind) + ":" + escaper.Replace(k.Topic) + ":" + escaper.Replace(k.ID)
	}
	return string(k.Kind) + ":" + escaper.Replace(k.ID)
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, ":")
	kind := Kind(parts[0])
	if !kind.Valid() {
		return Key{}, fmt.Errorf("cooldown key %q: unknown kind", s)
	}

	want := 2
	if kind.Scoped() {
		want = 3
	}
	if len(parts) != want {
		return Key{}, fmt.Errorf("cooldown key %q: want %d components", s, want)
	}

	if kind.Scoped() {
		return Key{Kind: kind, Topic: unescaper.Replace(parts[1]), ID: unescaper.Replace(parts[2])}, nil
	}
	return Key{Kind: kind, ID: unescaper.Replace(parts[1])}, nil
}
