package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func TestWriteOrders(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	delivered := created.Add(48 * time.Hour)
	orders := []model.Order{
		{
			ID:            "o1",
			UserID:        "customer-1",
			OrderNumber:   "ORD-2024-0001",
			Status:        model.OrderStatusDelivered,
			PaymentMethod: model.PaymentMethodCOD,
			PaymentStatus: model.PaymentStatusPaid,
			DeliveryType:  model.DeliveryTypeHome,
			Items: []model.OrderItem{
				{Name: "Fresh Bananas", Quantity: 2, Price: decimal.NewFromInt(40)},
				{Name: "Toor Dal", Quantity: 1, Price: decimal.NewFromInt(160)},
			},
			Subtotal:        decimal.NewFromInt(280),
			Discount:        decimal.NewFromInt(40),
			DeliveryFee:     decimal.NewFromInt(40),
			FinalTotal:      decimal.NewFromInt(280),
			PointsEarned:    2,
			DeliveryAddress: model.Address{City: "Pune"},
			CreatedAt:       created,
			DeliveredAt:     &delivered,
		},
		{
			ID:          "o2",
			OrderNumber: "ORD-2024-0002",
			Status:      model.OrderStatusPending,
			FinalTotal:  decimal.RequireFromString("99.5"),
			CreatedAt:   created,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteOrders(&buf, orders))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	assert.Equal(t, OrderSheetName, sheet.Name)
	require.Len(t, sheet.Rows, 3)

	header := sheet.Rows[0].Cells
	assert.Equal(t, "Order Number", header[0].Value)
	assert.Equal(t, "Final Total", header[11].Value)

	first := sheet.Rows[1].Cells
	assert.Equal(t, "ORD-2024-0001", first[0].Value)
	assert.Equal(t, "delivered", first[3].Value)
	assert.Equal(t, "Fresh Bananas x2, Toor Dal x1", first[7].Value)
	assert.Equal(t, "280.00", first[11].Value)
	assert.Equal(t, "2", first[12].Value)
	assert.Equal(t, "Pune", first[13].Value)
	assert.Equal(t, "2024-05-03 10:00:00", first[15].Value)

	second := sheet.Rows[2].Cells
	assert.Equal(t, "99.50", second[11].Value)
}
