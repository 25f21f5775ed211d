package billing_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/billbot/internal/billing"
)

func TestService_ListByPeriod(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := billing.NewMockRepository(ctrl)
	svc := billing.NewService(repo)

	month, year := "Gennaio", "2024"
	repo.EXPECT().
		ListRecords(gomock.Any(), billing.ListFilter{Month: &month, Year: &year}).
		Return([]*billing.Record{{ID: uuid.New(), ClientName: "A"}}, nil)

	got, err := svc.ListByPeriod(context.Background(), month, year)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGrandTotal(t *testing.T) {
	lines := []billing.Line{
		{ProjectName: "A", Rate: decimal.NewFromInt(250), Days: decimal.NewFromInt(5)},
		{ProjectName: "B", Rate: decimal.NewFromInt(300), Days: decimal.NewFromInt(3)},
	}

	assert.Equal(t, "1250", lines[0].Total().String())
	assert.Equal(t, "900", lines[1].Total().String())
	assert.Equal(t, "2150.00", billing.GrandTotal(lines).StringFixed(2))
}

func TestLine_TotalIsExact(t *testing.T) {
	l := billing.Line{
		ProjectName: "A",
		Rate:        decimal.RequireFromString("333.33"),
		Days:        decimal.RequireFromString("0.5"),
	}

	assert.True(t, l.Total().Equal(decimal.RequireFromString("166.665")))
	assert.Equal(t, "166.67", l.Total().StringFixed(2))
}
