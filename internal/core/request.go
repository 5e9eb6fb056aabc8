package core

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/JonMunkholm/regexcol/internal/table"
	"github.com/JonMunkholm/regexcol/internal/transform"
)

// ErrInvalidRequest marks request problems found outside field validation.
var ErrInvalidRequest = errors.New("invalid request")

// TransformRequest is one upload plus the rewrite to apply to it.
type TransformRequest struct {
	FileName    string `json:"file"`
	Data        []byte `json:"data"`
	Column      string `json:"column"`
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`

	// Description picks a preset pattern when Pattern is empty.
	Description string `json:"description"`
}

// Validate checks required fields. Replacement may be empty. Pattern may be
// empty only when Description names a preset.
func (r *TransformRequest) Validate(maxPatternLength int) error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FileName,
			validation.Required.Error("no file provided"),
		),
		validation.Field(&r.Data,
			validation.Required.Error("empty file"),
		),
		validation.Field(&r.Column,
			validation.By(notBlank),
			validation.Length(0, 1024),
		),
		validation.Field(&r.Pattern,
			validation.When(r.Description == "",
				validation.Required.Error("a pattern or a description is required"),
			),
			validation.Length(0, maxPatternLength),
		),
		validation.Field(&r.Replacement,
			validation.Length(0, maxPatternLength),
		),
		validation.Field(&r.Description,
			validation.Length(0, 1024),
		),
	)
}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

// Extension returns the extension hint taken from FileName.
func (r *TransformRequest) Extension() string {
	return table.ExtensionOf(r.FileName)
}

// resolvePattern returns the explicit pattern, or the preset named by the
// description.
func (r *TransformRequest) resolvePattern() (string, *Preset, error) {
	if r.Pattern != "" {
		return r.Pattern, nil, nil
	}
	p, ok := LookupPreset(r.Description)
	if !ok {
		return "", nil, fmt.Errorf("%w: no pattern matches the description %q", ErrInvalidRequest, r.Description)
	}
	return p.Pattern, &p, nil
}

// params builds the pipeline parameters once the pattern is known.
func (r *TransformRequest) params(pattern string) transform.Params {
	return transform.Params{
		Column:      r.Column,
		Pattern:     pattern,
		Replacement: r.Replacement,
	}
}
