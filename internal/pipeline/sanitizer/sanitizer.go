// Package sanitizer strips formatting artifacts from generated text and checks
// that what remains has the shape its template promises.
package sanitizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/validation"
	"shop-assistant/internal/models"
)

const InvalidFormatMessage = "invalid generated query format"

var (
	ErrNotBraceDelimited = errors.New("NOT_BRACE_DELIMITED")
	ErrEmptyText         = errors.New("EMPTY_GENERATED_TEXT")
)

var fencePattern = regexp.MustCompile("(?s)^```[A-Za-z0-9_+-]*[ \t]*\n?(.*?)\n?```$")

// StripFences removes a surrounding code fence, tagged or not, and trims
// whitespace.
func StripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

// Sanitize validates q according to its template. It never runs the query.
func Sanitize(q models.CompiledQuery) (models.CompiledQuery, error) {
	if q.Validated {
		return q, nil
	}
	text := StripFences(q.Text)

	switch q.TemplateKind {
	case models.TemplateCommerceQuery:
		if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
			return models.CompiledQuery{}, apperrors.NewGenerationFormatError(InvalidFormatMessage, ErrNotBraceDelimited)
		}
	case models.TemplateStoreQuery:
		op, err := decodeOperation(text)
		if err != nil {
			return models.CompiledQuery{}, apperrors.NewGenerationFormatError(InvalidFormatMessage, err)
		}
		q.Operation = op
	case models.TemplateCouponCampaign:
		if _, err := decodeCampaign(text); err != nil {
			return models.CompiledQuery{}, apperrors.NewGenerationFormatError("invalid campaign format", err)
		}
	case models.TemplateGeneralChat, models.TemplateContextual:
		if text == "" {
			return models.CompiledQuery{}, apperrors.NewGenerationFormatError("empty reply", ErrEmptyText)
		}
	default:
		return models.CompiledQuery{}, apperrors.NewInternalError(fmt.Errorf("unknown template %q", q.TemplateKind))
	}

	q.Text = text
	q.Validated = true
	return q, nil
}

// Campaign returns the coupon campaign carried by a sanitized query.
func Campaign(q models.CompiledQuery) (*models.CouponCampaign, error) {
	if q.TemplateKind != models.TemplateCouponCampaign || !q.Validated {
		return nil, apperrors.NewInternalError(fmt.Errorf("query is not a validated coupon campaign"))
	}
	c, err := decodeCampaign(q.Text)
	if err != nil {
		return nil, apperrors.NewGenerationFormatError("invalid campaign format", err)
	}
	return c, nil
}

func decodeOperation(text string) (*models.StructuredOperation, error) {
	res, err := validation.StructuredOperation.ValidateBytes([]byte(text))
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, res
	}

	var op models.StructuredOperation
	if err := strictDecode(text, &op); err != nil {
		return nil, err
	}
	if err := op.Validate(); err != nil {
		return nil, err
	}
	return &op, nil
}

func decodeCampaign(text string) (*models.CouponCampaign, error) {
	res, err := validation.CouponCampaign.ValidateBytes([]byte(text))
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, res
	}

	var c models.CouponCampaign
	if err := strictDecode(text, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func strictDecode(text string, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after JSON document")
	}
	return nil
}
