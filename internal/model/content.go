package model

import (
	"database/sql/driver"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

type ContentKind string

const (
	KindImage    ContentKind = "image"
	KindPlaylist ContentKind = "playlist"
)

// ContentRef identifies what a screen shows without embedding playlist items.
// It is implemented only by ImageRef and PlaylistRef.
type ContentRef interface {
	Kind() ContentKind
	isContentRef()
}

type ImageRef struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	StoragePath string `json:"storagePath,omitempty"`
}

func (ImageRef) Kind() ContentKind { return KindImage }
func (ImageRef) isContentRef()     {}

type PlaylistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (PlaylistRef) Kind() ContentKind { return KindPlaylist }
func (PlaylistRef) isContentRef()     {}

var ErrUnknownContentKind = errors.New("unknown content kind")

// Content is the wire and column envelope of a ContentRef:
// {"type": "image" | "playlist", "data": {...}}.
type Content struct {
	Ref ContentRef
}

// NewContent wraps ref, returning nil for a nil ref.
func NewContent(ref ContentRef) *Content {
	if ref == nil {
		return nil
	}
	return &Content{Ref: ref}
}

// Unwrap returns the ref, or nil when c is nil.
func (c *Content) Unwrap() ContentRef {
	if c == nil {
		return nil
	}
	return c.Ref
}

type contentEnvelope struct {
	Type ContentKind     `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.Ref == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(c.Ref)
	if err != nil {
		return nil, err
	}
	return json.Marshal(contentEnvelope{Type: c.Ref.Kind(), Data: data})
}

func (c *Content) UnmarshalJSON(b []byte) error {
	var env contentEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	switch env.Type {
	case KindImage:
		var img ImageRef
		if err := json.Unmarshal(env.Data, &img); err != nil {
			return fmt.Errorf("decode image content: %w", err)
		}
		c.Ref = img
	case KindPlaylist:
		var pl PlaylistRef
		if err := json.Unmarshal(env.Data, &pl); err != nil {
			return fmt.Errorf("decode playlist content: %w", err)
		}
		c.Ref = pl
	default:
		return fmt.Errorf("%w: %q", ErrUnknownContentKind, env.Type)
	}
	return nil
}

// Value stores the envelope in a jsonb column.
func (c Content) Value() (driver.Value, error) {
	if c.Ref == nil {
		return nil, nil
	}
	return c.MarshalJSON()
}

func (c *Content) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return c.UnmarshalJSON(v)
	case string:
		return c.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("content: cannot scan %T", src)
	}
}

// Validate rejects refs that cannot be displayed.
func (c *Content) Validate() error {
	switch ref := c.Unwrap().(type) {
	case nil:
		return nil
	case ImageRef:
		if ref.URL == "" {
			return errors.New("image content requires a url")
		}
	case PlaylistRef:
		if ref.ID == "" {
			return errors.New("playlist content requires an id")
		}
	default:
		return ErrUnknownContentKind
	}
	return nil
}
