package tui

import (
	"strconv"
	"strings"
)

// InteractTag identifies an interactive element. The payload belongs to the
// module that built the element; this package only compares tags.
type InteractTag struct {
	key string
}

// TagFromBytes builds a tag from an arbitrary payload.
func TagFromBytes(b []byte) InteractTag {
	return InteractTag{key: string(b)}
}

// NewTag builds a tag from string parts, e.g. NewTag("workspace", "3").
func NewTag(parts ...string) InteractTag {
	return InteractTag{key: strings.Join(parts, "\x00")}
}

// Bytes returns the payload the tag was built from.
func (t InteractTag) Bytes() []byte { return []byte(t.key) }

// Parts splits a tag built with NewTag back into its parts.
func (t InteractTag) Parts() []string { return strings.Split(t.key, "\x00") }

// HasPrefix reports whether the first part of the tag equals prefix.
func (t InteractTag) HasPrefix(prefix string) bool {
	return t.key == prefix || strings.HasPrefix(t.key, prefix+"\x00")
}

func (t InteractTag) String() string {
	return strconv.Quote(strings.ReplaceAll(t.key, "\x00", "/"))
}
