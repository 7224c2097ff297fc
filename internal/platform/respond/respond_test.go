// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package respond_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inkpress/inkpress/internal/platform/respond"
)

/*
TestWantsJSON verifies the two-candidate accept negotiation.
*/
func TestWantsJSON(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		want   bool
	}{
		{"no_header", "", false},
		{"json_only", "application/json", true},
		{"html_only", "text/html", false},
		{"browser_typical", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8", false},
		{"json_first", "application/json, text/html", true},
		{"html_first", "text/html, application/json", false},
		{"wildcard", "*/*", false},
		{"unrelated", "image/png", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", "/", nil)
			if tt.accept != "" {
				request.Header.Set("Accept", tt.accept)
			}
			assert.Equal(t, tt.want, respond.WantsJSON(request))
		})
	}
}
