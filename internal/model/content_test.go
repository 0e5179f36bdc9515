// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "testing"

func TestContentPayloadValidate(t *testing.T) {
	valid := ContentPayload{
		Title: "Features",
		Items: []ContentItem{
			{ID: "f1", Title: "On-chain quests", Color: ColorCyan},
			{ID: "f2", Title: "Guild wars", Color: ""},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}

	missingID := ContentPayload{Items: []ContentItem{{Title: "no id"}}}
	if err := missingID.Validate(); err == nil {
		t.Error("item without id must be rejected")
	}

	badColor := ContentPayload{Items: []ContentItem{{ID: "x", Color: "magenta"}}}
	if err := badColor.Validate(); err == nil {
		t.Error("unknown color must be rejected")
	}
}

func TestIsValidContentType(t *testing.T) {
	for _, ct := range ValidContentTypes {
		if !IsValidContentType(ct) {
			t.Errorf("%q must be valid", ct)
		}
	}
	if IsValidContentType("BLOG") {
		t.Error("BLOG is not a content type")
	}
}

func TestGetPayloadEmptyAndMalformed(t *testing.T) {
	empty := Content{Type: ContentTypeHero}
	if p := empty.GetPayload(); p.Title != "" || len(p.Items) != 0 {
		t.Error("empty payload must yield zero value")
	}

	malformed := Content{Type: ContentTypeHero, Payload: "{{{"}
	if p := malformed.GetPayload(); p.Title != "" {
		t.Error("malformed payload must degrade to zero value, not panic")
	}
}
