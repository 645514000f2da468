package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tealeg/xlsx"

	"bazaar/internal/log"
	"bazaar/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHandler struct {
	Orders *services.OrderService
}

// ExportOrders streams every order as a spreadsheet, one row per order.
func (h *AdminHandler) ExportOrders(c *fiber.Ctx) error {
	orders, err := h.Orders.ListAll(c.UserContext(), actor(c))
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return err
	}
	header := sheet.AddRow()
	for _, col := range []string{
		"Order Number", "Order ID", "User ID", "Status", "Payment Method", "Payment Status",
		"Transaction ID", "Items", "Subtotal", "Shipping", "Tax", "Total", "Created At",
	} {
		header.AddCell().SetValue(col)
	}

	for _, o := range orders {
		row := sheet.AddRow()
		row.AddCell().SetValue(o.OrderNumber)
		row.AddCell().SetValue(o.ID)
		row.AddCell().SetValue(o.UserID)
		row.AddCell().SetValue(string(o.Status))
		method, status, txn := "", "", ""
		if o.Payment != nil {
			method, status, txn = string(o.Payment.Method), string(o.Payment.Status), o.Payment.TransactionID
		}
		row.AddCell().SetValue(method)
		row.AddCell().SetValue(status)
		row.AddCell().SetValue(txn)
		row.AddCell().SetValue(len(o.Items))
		row.AddCell().SetValue(o.Subtotal.StringFixed(2))
		row.AddCell().SetValue(o.ShippingFee.StringFixed(2))
		row.AddCell().SetValue(o.Tax.StringFixed(2))
		row.AddCell().SetValue(o.TotalAmount.StringFixed(2))
		row.AddCell().SetValue(o.CreatedAt)
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return err
	}
	log.Audit(c, "admin.orders.export", map[string]any{"rows": len(orders)})

	name := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(buf.Bytes())
}
