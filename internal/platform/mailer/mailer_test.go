// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package mailer

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_PlainTextOnly(t *testing.T) {
	raw := encode(Message{
		To:      "member@example.com",
		From:    "no-reply@inkpress.app",
		Subject: "Reset your password",
		Text:    "Your code is 482913.",
	})

	assert.Contains(t, raw, "From: no-reply@inkpress.app\r\n")
	assert.Contains(t, raw, "To: member@example.com\r\n")
	assert.Contains(t, raw, "Subject: Reset your password\r\n")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=utf-8\r\n")
	assert.Contains(t, raw, "Your code is 482913.")
	assert.NotContains(t, raw, "multipart/alternative")
}

func TestEncode_HTMLGoesOutAsMultipartAlternative(t *testing.T) {
	message := Message{
		To:      "member@example.com",
		From:    "no-reply@inkpress.app",
		Subject: "Reset your password",
		Text:    "Your code is 482913.",
		HTML:    "<p>Your code is <strong>482913</strong>.</p>",
	}
	raw := encode(message)

	require.Contains(t, raw, `Content-Type: multipart/alternative; boundary="`)

	boundary := multipartBoundary(message)
	require.Equal(t, 3, strings.Count(raw, "--"+boundary),
		"two part openers and one terminator")
	assert.True(t, strings.HasSuffix(raw, "--"+boundary+"--\r\n"))

	// The plain-text part is the fallback, so it comes before the HTML part.
	textAt := strings.Index(raw, "Your code is 482913.")
	htmlAt := strings.Index(raw, "<p>Your code is <strong>482913</strong>.</p>")
	require.NotEqual(t, -1, textAt)
	require.NotEqual(t, -1, htmlAt)
	assert.Less(t, textAt, htmlAt)

	assert.Contains(t, raw, "Content-Type: text/plain; charset=utf-8\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=utf-8\r\n")
}

func TestEncode_BoundaryNeverAppearsInBodies(t *testing.T) {
	message := Message{
		To:      "member@example.com",
		From:    "no-reply@inkpress.app",
		Subject: "Welcome",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
	}

	boundary := multipartBoundary(message)
	assert.NotContains(t, message.Text, boundary)
	assert.NotContains(t, message.HTML, boundary)
}

func TestLogMailer_SendNeverFails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mail := NewLog(logger)

	err := mail.Send(context.Background(), Message{
		To:      "member@example.com",
		From:    "no-reply@inkpress.app",
		Subject: "Welcome",
		Text:    "Welcome to Inkpress.",
		HTML:    "<p>Welcome to Inkpress.</p>",
	})
	require.NoError(t, err)
}
