// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Content types. One record exists per type (upsert semantics).
const (
	ContentTypeHero       = "HERO"
	ContentTypeFeatures   = "FEATURES"
	ContentTypeHowItWorks = "HOW_IT_WORKS"
	ContentTypeRoadmap    = "ROADMAP"
	ContentTypeFAQ        = "FAQ"
)

// ValidContentTypes contains all recognized content types.
var ValidContentTypes = []string{
	ContentTypeHero,
	ContentTypeFeatures,
	ContentTypeHowItWorks,
	ContentTypeRoadmap,
	ContentTypeFAQ,
}

// Item accent colors available to landing page sections.
const (
	ColorCyan   = "cyan"
	ColorPurple = "purple"
	ColorGreen  = "green"
	ColorOrange = "orange"
	ColorPink   = "pink"
)

// ValidItemColors contains all valid item accent colors.
var ValidItemColors = []string{ColorCyan, ColorPurple, ColorGreen, ColorOrange, ColorPink}

// Content represents a typed landing page document.
type Content struct {
	ID        int64         `json:"id"`
	Type      string        `json:"type"`
	Payload   string        `json:"-"` // JSON document stored as string
	UpdatedBy sql.NullInt64 `json:"updated_by,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ContentItem is a single entry inside a content payload (a feature card,
// a roadmap milestone, a FAQ entry, a how-it-works step).
type ContentItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	Icon      string `json:"icon,omitempty"`
	Color     string `json:"color,omitempty"`
	SortOrder int    `json:"sort_order"`
}

// ContentPayload is the structured document held by a content record.
type ContentPayload struct {
	Title    string        `json:"title,omitempty"`
	Subtitle string        `json:"subtitle,omitempty"`
	CTALabel string        `json:"cta_label,omitempty"`
	CTAURL   string        `json:"cta_url,omitempty"`
	Items    []ContentItem `json:"items,omitempty"`
}

// IsValidContentType reports whether t is a recognized content type.
func IsValidContentType(t string) bool {
	for _, ct := range ValidContentTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// IsValidItemColor reports whether c is a valid accent color.
// An empty color is allowed and means "theme default".
func IsValidItemColor(c string) bool {
	if c == "" {
		return true
	}
	for _, vc := range ValidItemColors {
		if vc == c {
			return true
		}
	}
	return false
}

// GetPayload parses the JSON payload. A missing or empty payload yields
// a zero-valued document, never an error.
func (c *Content) GetPayload() ContentPayload {
	var p ContentPayload
	if c.Payload == "" {
		return p
	}
	_ = json.Unmarshal([]byte(c.Payload), &p)
	return p
}

// Validate checks payload invariants: every item needs an id and a valid
// accent color.
func (p *ContentPayload) Validate() error {
	for i, item := range p.Items {
		if item.ID == "" {
			return fmt.Errorf("item %d: missing id", i)
		}
		if !IsValidItemColor(item.Color) {
			return fmt.Errorf("item %d: invalid color %q", i, item.Color)
		}
	}
	return nil
}
