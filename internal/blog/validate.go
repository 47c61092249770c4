// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"quillpress/internal/apperr"
	"quillpress/internal/models"
)

var validate = newValidator()

// newValidator reports fields by their JSON names so messages line up with
// the form and API field names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldLabels are the human names used in validation messages.
var fieldLabels = map[string]string{
	"user_id":        "Author",
	"title":          "Title",
	"slug":           "Slug",
	"body":           "Body",
	"body_mark":      "Body",
	"excerpt":        "Excerpt",
	"category_id":    "Category",
	"category_title": "Category",
	"tag_titles":     "Tag",
	"status":         "Status",
	"comment_status": "Comment status",
	"description":    "Description",
	"color":          "Color",
}

// fieldErrors collects per-field messages, keeping the first message for a
// field and the order fields failed in.
type fieldErrors struct {
	order  []string
	fields map[string]string
}

func (f *fieldErrors) add(field, msg string) {
	if f.fields == nil {
		f.fields = make(map[string]string)
	}
	if _, ok := f.fields[field]; ok {
		return
	}
	f.fields[field] = msg
	f.order = append(f.order, field)
}

// addStruct runs the struct validator and records every failure.
func (f *fieldErrors) addStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Unexpected("validate input", err)
	}
	for _, fe := range verrs {
		name, _, _ := strings.Cut(fe.Field(), "[")
		f.add(name, fieldMessage(name, fe))
	}
	return nil
}

// err returns a Validation error whose message is the first field message,
// or nil when nothing failed.
func (f *fieldErrors) err() error {
	if len(f.order) == 0 {
		return nil
	}
	return apperr.Validation(f.fields[f.order[0]], f.fields)
}

func fieldMessage(field string, fe validator.FieldError) string {
	label, ok := fieldLabels[field]
	if !ok {
		label = field
	}
	switch fe.Tag() {
	case "required", "gt":
		return label + " is required."
	case "max":
		return fmt.Sprintf("%s is too long (max %s characters).", label, fe.Param())
	case "gte":
		return label + " must not be negative."
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return label + " is invalid."
	}
}

// validateSubmission checks a normalized submission: struct rules plus the
// rule that only drafts may be untitled.
func validateSubmission(s *models.Submission) error {
	var fe fieldErrors
	if err := fe.addStruct(s); err != nil {
		return err
	}
	if s.Status == models.PostStatusPublished && strings.TrimSpace(s.Title) == "" {
		fe.add("title", "Title is required to publish a post.")
	}
	return fe.err()
}
