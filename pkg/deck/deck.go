// Package deck holds the slide-generation domain: the tool contract the
// model answers through, the typed events decoded from completed
// invocations, the JSON wire messages delivered to subscribers, and a
// persistent snapshot of the deck being generated.
//
// Slides are addressed by index. A slide produced twice for the same index
// overwrites the earlier one; receivers hold a sparse, index-addressed
// array, so delivery only has to be at-least-once.
package deck

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Slide is one generated slide.
type Slide struct {
	Index int    `json:"index" msgpack:"index"`
	Title string `json:"title" msgpack:"title"`
	HTML  string `json:"html" msgpack:"html"`
}

// SlideType classifies an outline item.
type SlideType string

// Outline item types.
const (
	SlideTypeTitle      SlideType = "title"
	SlideTypeContent    SlideType = "content"
	SlideTypeImage      SlideType = "image"
	SlideTypeChart      SlideType = "chart"
	SlideTypeConclusion SlideType = "conclusion"
)

var validSlideTypes = map[string]struct{}{
	string(SlideTypeTitle):      {},
	string(SlideTypeContent):    {},
	string(SlideTypeImage):      {},
	string(SlideTypeChart):      {},
	string(SlideTypeConclusion): {},
}

// IsValid returns true if the slide type is known. The empty type is
// valid and defaults to content.
func (t SlideType) IsValid() bool {
	if t == "" {
		return true
	}
	_, ok := validSlideTypes[string(t)]
	return ok
}

// UnmarshalText implements encoding.TextUnmarshaler with validation, which
// covers JSON string decoding.
func (t *SlideType) UnmarshalText(data []byte) error {
	st := SlideType(data)
	if !st.IsValid() {
		return fmt.Errorf("deck: invalid slide type: %q", data)
	}
	*t = st
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler with validation.
func (t *SlideType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return t.UnmarshalText([]byte(s))
}

// OutlineItem is one planned slide from the approved outline.
type OutlineItem struct {
	Title   string    `json:"title" yaml:"title"`
	Content string    `json:"content" yaml:"content"`
	Type    SlideType `json:"type,omitempty" yaml:"type,omitempty"`
}

// Outline is the ordered plan for a presentation; item position is the
// slide index.
type Outline []OutlineItem

// Titles returns the item titles in order.
func (o Outline) Titles() []string {
	titles := make([]string, len(o))
	for i, item := range o {
		titles[i] = item.Title
	}
	return titles
}
