package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/billbot/internal/billing"
	"github.com/MrJamesThe3rd/billbot/internal/events"
)

func TestNewCompletion(t *testing.T) {
	at := time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC)
	records := billing.RecordsFromLines("Gennaio", "2024", []billing.Line{
		{ProjectName: "Acme", Rate: decimal.NewFromInt(250), Days: decimal.NewFromInt(5)},
		{ProjectName: "Globex", Rate: decimal.NewFromInt(300), Days: decimal.NewFromInt(3)},
	})

	c := events.NewCompletion("whatsapp:+39123", records, at)

	assert.Equal(t, "Gennaio", c.Month)
	assert.Equal(t, "2024", c.Year)
	assert.Equal(t, "2150.00", c.GrandTotal.StringFixed(2))
	require.Len(t, c.Records, 2)
	assert.Equal(t, "1250", c.Records[0].Total.String())

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "whatsapp:+39123", decoded["identity"])
	assert.Equal(t, "2150", decoded["grand_total"])
}

func TestConnect_EmptyURLIsNoop(t *testing.T) {
	p, err := events.Connect(events.Config{})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NoError(t, p.PublishCompletion(context.Background(), events.Completion{}))

	p.Close()
}
