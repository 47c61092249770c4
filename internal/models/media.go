// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"strings"
	"time"
)

// MediaType distinguishes images from other uploaded files.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeFile  MediaType = "file"
)

// Media is the metadata of an uploaded file. The bytes live in external
// storage; only the record is managed here.
type Media struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	FileName    string    `json:"file_name"`
	Title       string    `json:"title"`
	Caption     string    `json:"caption"`
	Alt         string    `json:"alt"`
	ContentType string    `json:"content_type"`
	MediaType   MediaType `json:"media_type"`
	Length      int64     `json:"length"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	UploadedOn  time.Time `json:"uploaded_on"`
}

// Valid reports whether t is a known media type.
func (t MediaType) Valid() bool {
	return t == MediaTypeImage || t == MediaTypeFile
}

// MediaTypeFor classifies a MIME content type. Parameters and case are
// ignored; anything that is not image/* is a plain file.
func MediaTypeFor(contentType string) MediaType {
	major, _, _ := strings.Cut(contentType, "/")
	if strings.EqualFold(strings.TrimSpace(major), "image") && strings.Contains(contentType, "/") {
		return MediaTypeImage
	}
	return MediaTypeFile
}

var sizeUnits = []string{"KB", "MB", "GB"}

// HumanSize formats Length with binary units: whole bytes and kilobytes,
// one decimal from megabytes up.
func (m *Media) HumanSize() string {
	if m.Length < 1024 {
		return fmt.Sprintf("%d B", m.Length)
	}
	size := float64(m.Length) / 1024
	unit := 0
	for size >= 1024 && unit < len(sizeUnits)-1 {
		size /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%.0f %s", size, sizeUnits[unit])
	}
	return fmt.Sprintf("%.1f %s", size, sizeUnits[unit])
}
