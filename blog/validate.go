package blog

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Wire shapes mirror the API payloads with pointer fields so that a missing
// field can be told apart from a zero value.
type overviewWire struct {
	ID             *int64  `json:"id" validate:"required"`
	Author         *string `json:"author" validate:"required"`
	Comments       *int    `json:"comments" validate:"required,min=0"`
	ContentPreview *string `json:"contentPreview" validate:"required"`
	CreatedAt      *string `json:"createdAt" validate:"required"`
	CreatedByMe    *bool   `json:"createdByMe" validate:"required"`
	HeaderImageURL *string `json:"headerImageUrl"`
	LikedByMe      *bool   `json:"likedByMe" validate:"required"`
	Likes          *int    `json:"likes" validate:"required,min=0"`
	Title          *string `json:"title" validate:"required"`
	UpdatedAt      *string `json:"updatedAt" validate:"required"`
}

type pagedWire struct {
	Data       []overviewWire `json:"data" validate:"required,dive"`
	PageIndex  *int           `json:"pageIndex" validate:"required,min=0"`
	PageSize   *int           `json:"pageSize" validate:"required,min=0"`
	TotalCount *int           `json:"totalCount" validate:"required,min=0"`
}

type commentWire struct {
	ID        *int64  `json:"id" validate:"required"`
	Author    *string `json:"author" validate:"required"`
	Content   *string `json:"content" validate:"required"`
	CreatedAt *string `json:"createdAt" validate:"required"`
}

type entryWire struct {
	ID             *int64        `json:"id" validate:"required"`
	Title          *string       `json:"title" validate:"required"`
	Content        *string       `json:"content" validate:"required"`
	Author         *string       `json:"author" validate:"required"`
	CreatedAt      *string       `json:"createdAt" validate:"required"`
	UpdatedAt      *string       `json:"updatedAt" validate:"required"`
	CreatedByMe    *bool         `json:"createdByMe" validate:"required"`
	HeaderImageURL *string       `json:"headerImageUrl"`
	LikedByMe      *bool         `json:"likedByMe" validate:"required"`
	Likes          *int          `json:"likes" validate:"required,min=0"`
	Comments       []commentWire `json:"comments" validate:"omitempty,dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report JSON names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodePagedEntries parses and shape-checks a listing payload.
func DecodePagedEntries(raw []byte) (PagedEntries, error) {
	var w pagedWire
	if err := decodeAndValidate(raw, &w, "paged entries"); err != nil {
		return PagedEntries{}, err
	}
	out := PagedEntries{
		Data:       make([]EntryOverview, 0, len(w.Data)),
		PageIndex:  *w.PageIndex,
		PageSize:   *w.PageSize,
		TotalCount: *w.TotalCount,
	}
	for _, o := range w.Data {
		out.Data = append(out.Data, EntryOverview{
			ID:             *o.ID,
			Author:         *o.Author,
			Comments:       *o.Comments,
			ContentPreview: *o.ContentPreview,
			CreatedAt:      *o.CreatedAt,
			CreatedByMe:    *o.CreatedByMe,
			HeaderImageURL: deref(o.HeaderImageURL),
			LikedByMe:      *o.LikedByMe,
			Likes:          *o.Likes,
			Title:          *o.Title,
			UpdatedAt:      *o.UpdatedAt,
		})
	}
	return out, nil
}

// DecodeEntry parses and shape-checks a single entry payload.
func DecodeEntry(raw []byte) (Entry, error) {
	var w entryWire
	if err := decodeAndValidate(raw, &w, "entry"); err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:             *w.ID,
		Title:          *w.Title,
		Content:        *w.Content,
		Author:         *w.Author,
		CreatedAt:      *w.CreatedAt,
		UpdatedAt:      *w.UpdatedAt,
		CreatedByMe:    *w.CreatedByMe,
		HeaderImageURL: deref(w.HeaderImageURL),
		LikedByMe:      *w.LikedByMe,
		Likes:          *w.Likes,
	}
	for _, c := range w.Comments {
		e.Comments = append(e.Comments, Comment{
			ID:        *c.ID,
			Author:    *c.Author,
			Content:   *c.Content,
			CreatedAt: *c.CreatedAt,
		})
	}
	return e, nil
}

// ValidateNewEntry checks a create payload before it is sent.
func ValidateNewEntry(e NewEntry) error {
	if err := validate.Struct(e); err != nil {
		return toValidationError("new entry", err)
	}
	return nil
}

func decodeAndValidate(raw []byte, dst any, kind string) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &ValidationError{Kind: kind, Fields: []FieldError{{
				Field: typeErr.Field,
				Rule:  "must be " + typeErr.Type.String(),
			}}}
		}
		return &ValidationError{Kind: kind, Fields: []FieldError{{Rule: "malformed JSON: " + err.Error()}}}
	}
	if err := validate.Struct(dst); err != nil {
		return toValidationError(kind, err)
	}
	return nil
}

func toValidationError(kind string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Kind: kind, Fields: []FieldError{{Rule: err.Error()}}}
	}
	ve := &ValidationError{Kind: kind}
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		ve.Fields = append(ve.Fields, FieldError{Field: fieldPath(fe.Namespace()), Rule: rule})
	}
	return ve
}

// fieldPath drops the leading struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
