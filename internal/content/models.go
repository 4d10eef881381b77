package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Collection names. Keep these stable; the site frontend reads them.
const (
	CollectionAbout        = "about"
	CollectionSkills       = "skills"
	CollectionProjects     = "projects"
	CollectionExperience   = "experience"
	CollectionTestimonials = "testimonials"
	CollectionServices     = "services"
	CollectionSocialLinks  = "social_links"
	CollectionHero         = "hero"
	CollectionMessages     = "messages"
)

// PublicCollections can be read without a token.
var PublicCollections = []string{
	CollectionAbout,
	CollectionSkills,
	CollectionProjects,
	CollectionExperience,
	CollectionTestimonials,
	CollectionServices,
	CollectionSocialLinks,
	CollectionHero,
}

// ManagedCollections can be edited through the CMS.
var ManagedCollections = append(slices.Clone(PublicCollections), CollectionMessages)

func IsManaged(c string) bool { return slices.Contains(ManagedCollections, c) }
func IsPublic(c string) bool  { return slices.Contains(PublicCollections, c) }

// Fields is the free-form part of a document.
type Fields map[string]any

// Document is a stored CMS entity. The store owns ID and timestamps.
type Document struct {
	ID         string
	Collection string
	Fields     Fields
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// System keys in the flattened JSON form. User fields cannot override them.
const (
	keyID         = "id"
	keyCollection = "collection"
	keyCreatedAt  = "created_at"
	keyUpdatedAt  = "updated_at"
)

var reservedKeys = []string{keyID, keyCollection, keyCreatedAt, keyUpdatedAt}

// MarshalJSON flattens fields next to the system keys.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+4)
	for k, v := range d.Fields {
		out[k] = v
	}
	out[keyID] = d.ID
	out[keyCollection] = d.Collection
	out[keyCreatedAt] = d.CreatedAt.UTC().Format(time.RFC3339Nano)
	out[keyUpdatedAt] = d.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return json.Marshal(out)
}

func (d *Document) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d.ID, _ = raw[keyID].(string)
	d.Collection, _ = raw[keyCollection].(string)
	var err error
	if d.CreatedAt, err = parseTime(raw[keyCreatedAt]); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	if d.UpdatedAt, err = parseTime(raw[keyUpdatedAt]); err != nil {
		return fmt.Errorf("updated_at: %w", err)
	}
	d.Fields = withoutReserved(raw)
	return nil
}

func parseTime(v any) (time.Time, error) {
	s, _ := v.(string)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func withoutReserved(f map[string]any) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if slices.Contains(reservedKeys, k) {
			continue
		}
		out[k] = v
	}
	return out
}

// writableFields strips reserved keys and rejects names that the document
// stores would interpret as paths or operators.
func writableFields(f map[string]any) (Fields, error) {
	out := withoutReserved(f)
	if len(out) == 0 {
		return nil, ErrDataMissing
	}
	for k := range out {
		if k == "" || strings.Contains(k, ".") || strings.HasPrefix(k, "$") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFieldName, k)
		}
	}
	return out, nil
}

// ListResult mirrors the store's list response.
type ListResult struct {
	Total     int        `json:"total"`
	Documents []Document `json:"documents"`
}

// Order selects the sort for List.
type Order struct {
	Field string
	Desc  bool
}

var (
	OrderNewestFirst = Order{Field: keyCreatedAt, Desc: true}
	OrderOldestFirst = Order{Field: keyCreatedAt}
)

func (o Order) valid() bool {
	return o.Field == keyCreatedAt || o.Field == keyUpdatedAt
}

var (
	ErrNotFound          = errors.New("content: document not found")
	ErrInvalidCollection = errors.New("content: invalid collection")
	ErrDocumentIDMissing = errors.New("content: document id required")
	ErrDataMissing       = errors.New("content: data required")
	ErrInvalidOrder      = errors.New("content: invalid order")
	ErrInvalidFieldName  = errors.New("content: invalid field name")
)
