package export

import (
	"io"
	"strconv"
	"strings"

	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	"github.com/tealeg/xlsx"
)

const (
	OrderSheetName  = "Orders"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	timeLayout      = "2006-01-02 15:04:05"
)

var orderHeaders = []string{
	"Order Number", "Order ID", "User ID", "Status", "Payment Method", "Payment Status",
	"Delivery Type", "Items", "Subtotal", "Discount", "Delivery Fee", "Final Total",
	"Points Earned", "City", "Created At", "Delivered At",
}

// WriteOrders 輸出訂單報表, 金額以兩位小數字串寫入避免浮點誤差
func WriteOrders(w io.Writer, orders []model.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(OrderSheetName)
	if err != nil {
		return err
	}

	headerRow := sheet.AddRow()
	for _, h := range orderHeaders {
		headerRow.AddCell().SetString(h)
	}

	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetString(o.OrderNumber)
		row.AddCell().SetString(o.ID)
		row.AddCell().SetString(o.UserID)
		row.AddCell().SetString(string(o.Status))
		row.AddCell().SetString(string(o.PaymentMethod))
		row.AddCell().SetString(string(o.PaymentStatus))
		row.AddCell().SetString(string(o.DeliveryType))
		row.AddCell().SetString(itemSummary(o.Items))
		row.AddCell().SetString(o.Subtotal.StringFixed(2))
		row.AddCell().SetString(o.Discount.StringFixed(2))
		row.AddCell().SetString(o.DeliveryFee.StringFixed(2))
		row.AddCell().SetString(o.FinalTotal.StringFixed(2))
		row.AddCell().SetInt(o.PointsEarned)
		row.AddCell().SetString(o.DeliveryAddress.City)
		row.AddCell().SetString(o.CreatedAt.Format(timeLayout))
		deliveredAt := ""
		if o.DeliveredAt != nil {
			deliveredAt = o.DeliveredAt.Format(timeLayout)
		}
		row.AddCell().SetString(deliveredAt)
	}

	return file.Write(w)
}

func itemSummary(items []model.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Name+" x"+strconv.Itoa(item.Quantity))
	}
	return strings.Join(parts, ", ")
}
