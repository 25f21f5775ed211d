package mail

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/billbot/internal/draft"
)

func testDraft() draft.Draft {
	return draft.Draft{
		To:       "client@example.com",
		Subject:  "Billing authorization Gennaio 2024",
		HTMLBody: "<p>Hello</p>",
	}
}

func TestSMTP_Build(t *testing.T) {
	s := New(Config{From: "billing@example.com"})

	msg, err := s.build(testDraft())
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "Subject: Billing authorization Gennaio 2024")
	assert.Contains(t, raw, "To: <client@example.com>")
	assert.Contains(t, raw, "text/html")
	assert.NotEmpty(t, messageID(msg))
}

func TestSMTP_Build_InvalidAddresses(t *testing.T) {
	_, err := New(Config{From: "not an address"}).build(testDraft())
	assert.Error(t, err)

	d := testDraft()
	d.To = ""
	_, err = New(Config{From: "billing@example.com"}).build(d)
	assert.Error(t, err)
}

func TestSMTP_Send_MockMode(t *testing.T) {
	s := New(Config{From: "billing@example.com", MockMode: true})

	id, err := s.Send(context.Background(), testDraft())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
