package clip

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ReactionType is the emotional tone requested for a generated reaction.
type ReactionType string

const (
	ReactionHappy     ReactionType = "happy"
	ReactionNeutral   ReactionType = "neutral"
	ReactionSad       ReactionType = "sad"
	ReactionSurprised ReactionType = "surprised"
)

// DemoType is the kind of product demo the reaction is paired with.
type DemoType string

const (
	DemoShazaming DemoType = "shazaming"
	DemoFeed      DemoType = "feed"
	DemoKeywords  DemoType = "keywords"
	DemoOther     DemoType = "other"
)

// OriginalID identifies the unmodified source video.
const OriginalID = "original"

// OriginalName is the display name of the unmodified source video.
const OriginalName = "Original Demo Video"

var (
	reactionTypes = []ReactionType{ReactionHappy, ReactionNeutral, ReactionSad, ReactionSurprised}
	demoTypes     = []DemoType{DemoShazaming, DemoFeed, DemoKeywords, DemoOther}
	titleCaser    = cases.Title(language.English)
)

// ReactionTypes lists every reaction type in display order.
func ReactionTypes() []ReactionType {
	return append([]ReactionType(nil), reactionTypes...)
}

// DemoTypes lists every demo type in display order.
func DemoTypes() []DemoType {
	return append([]DemoType(nil), demoTypes...)
}

// ParseReactionType normalizes a user-supplied reaction type.
func ParseReactionType(value string) (ReactionType, error) {
	normalized := ReactionType(strings.ToLower(strings.TrimSpace(value)))
	for _, candidate := range reactionTypes {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown reaction type %q", value)
}

// ParseDemoType normalizes a user-supplied demo type.
func ParseDemoType(value string) (DemoType, error) {
	normalized := DemoType(strings.ToLower(strings.TrimSpace(value)))
	for _, candidate := range demoTypes {
		if candidate == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown demo type %q", value)
}

// Valid reports whether r is a known reaction type.
func (r ReactionType) Valid() bool {
	_, err := ParseReactionType(string(r))
	return err == nil && string(r) == strings.ToLower(strings.TrimSpace(string(r)))
}

// Valid reports whether d is a known demo type.
func (d DemoType) Valid() bool {
	_, err := ParseDemoType(string(d))
	return err == nil && string(d) == strings.ToLower(strings.TrimSpace(string(d)))
}

// Label returns the human label ("Happy").
func (r ReactionType) Label() string {
	return titleCaser.String(string(r))
}

// Label returns the human label ("Shazaming").
func (d DemoType) Label() string {
	return titleCaser.String(string(d))
}

// Describe is the summary attached to a variant when the generator omits one.
func Describe(reaction ReactionType, demo DemoType) string {
	return fmt.Sprintf("Generated %s reaction for %s demo", reaction, demo)
}

// Source is the immutable video a generation starts from.
type Source struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// OriginalSource wraps a source url as the "original" reference video.
func OriginalSource(url string) Source {
	return Source{ID: OriginalID, URL: strings.TrimSpace(url), Name: OriginalName}
}

// Variant is one generated reaction clip. Variants are values; nothing mutates
// them after the generation boundary.
type Variant struct {
	ID          string       `json:"id"`
	URL         string       `json:"url"`
	Prompt      string       `json:"prompt"`
	Reaction    ReactionType `json:"reactionType"`
	Demo        DemoType     `json:"demoType"`
	PreviewURL  string       `json:"previewUrl,omitempty"`
	Description string       `json:"description,omitempty"`
	Name        string       `json:"name,omitempty"`
}

// DisplayName prefers the explicit name and falls back to the id.
func (v Variant) DisplayName() string {
	if name := strings.TrimSpace(v.Name); name != "" {
		return name
	}
	return v.ID
}

// Metadata describes a composition for catalog persistence.
type Metadata struct {
	Prompt   string       `json:"prompt"`
	Reaction ReactionType `json:"reactionType"`
	Demo     DemoType     `json:"demoType"`
}

// DefaultFontSize is the caption size used when none is supplied.
const DefaultFontSize = 70

// CaptionSpec is the caption overlay applied to a combined clip.
type CaptionSpec struct {
	Captions []string `json:"captions"`
	FontSize int      `json:"fontSize"`
}

// Normalized trims blank captions and applies the default font size. When no
// captions remain, fallback is used as the single caption.
func (s CaptionSpec) Normalized(fallback string) CaptionSpec {
	out := CaptionSpec{FontSize: s.FontSize}
	for _, caption := range s.Captions {
		if trimmed := strings.TrimSpace(caption); trimmed != "" {
			out.Captions = append(out.Captions, trimmed)
		}
	}
	if len(out.Captions) == 0 {
		if trimmed := strings.TrimSpace(fallback); trimmed != "" {
			out.Captions = []string{trimmed}
		}
	}
	if out.FontSize <= 0 {
		out.FontSize = DefaultFontSize
	}
	return out
}
