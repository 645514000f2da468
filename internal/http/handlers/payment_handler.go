package handlers

import (
	"context"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"bazaar/internal/config"
	"bazaar/internal/log"
	"bazaar/internal/services"
)

// PaymentHandler receives the gateway's browser redirects. The gateway
// may POST a form or GET with a query string; FormValue reads both.
type PaymentHandler struct {
	Payments *services.PaymentService
	Frontend config.FrontendURLs
}

func callbackInput(c *fiber.Ctx) services.CallbackInput {
	txn := c.FormValue("tran_id")
	if txn == "" {
		txn = c.FormValue("transactionId")
	}
	return services.CallbackInput{
		TransactionID: utils.CopyString(txn),
		ValID:         utils.CopyString(c.FormValue("val_id")),
		BankTranID:    utils.CopyString(c.FormValue("bank_tran_id")),
		Status:        utils.CopyString(c.FormValue("status")),
	}
}

func (h *PaymentHandler) Success(c *fiber.Ctx) error {
	in := callbackInput(c)
	res, err := h.Payments.HandleSuccess(c.UserContext(), in)
	if err != nil {
		log.Error(c, "payment.callback.success", err, map[string]any{"txn": in.TransactionID})
		if mErr := h.Payments.MarkFailed(context.WithoutCancel(c.UserContext()), in.TransactionID); mErr != nil {
			log.Error(c, "payment.callback.mark_failed", mErr, map[string]any{"txn": in.TransactionID})
		}
		return h.finish(c, "fail", h.Frontend.Fail, in.TransactionID, "", errMessage(err))
	}
	log.Audit(c, "payment.callback.success", map[string]any{"txn": res.TransactionID, "order": res.OrderID, "replay": res.Replay})
	return h.finish(c, "success", h.Frontend.Success, res.TransactionID, res.OrderID, "")
}

func (h *PaymentHandler) Fail(c *fiber.Ctx) error {
	in := callbackInput(c)
	res, err := h.Payments.HandleFail(c.UserContext(), in)
	if err != nil {
		log.Error(c, "payment.callback.fail", err, map[string]any{"txn": in.TransactionID})
		return h.finish(c, "fail", h.Frontend.Fail, in.TransactionID, "", errMessage(err))
	}
	log.Audit(c, "payment.callback.fail", map[string]any{"txn": res.TransactionID, "order": res.OrderID, "replay": res.Replay})
	return h.finish(c, "fail", h.Frontend.Fail, res.TransactionID, res.OrderID, "payment failed")
}

func (h *PaymentHandler) Cancel(c *fiber.Ctx) error {
	in := callbackInput(c)
	res, err := h.Payments.HandleCancel(c.UserContext(), in)
	if err != nil {
		log.Error(c, "payment.callback.cancel", err, map[string]any{"txn": in.TransactionID})
		return h.finish(c, "cancel", h.Frontend.Cancel, in.TransactionID, "", errMessage(err))
	}
	log.Audit(c, "payment.callback.cancel", map[string]any{"txn": res.TransactionID, "order": res.OrderID, "replay": res.Replay})
	return h.finish(c, "cancel", h.Frontend.Cancel, res.TransactionID, res.OrderID, "")
}

// errMessage keeps internal errors out of redirect URLs.
func errMessage(err error) string {
	if statusFor(err) != 0 {
		return err.Error()
	}
	return "payment could not be processed"
}

// finish redirects to the configured front-end page, or renders the
// built-in result page when none is set.
func (h *PaymentHandler) finish(c *fiber.Ctx, outcome, target, txn, orderID, msg string) error {
	if target == "" {
		return c.Render("payment_result", fiber.Map{
			"Outcome":       outcome,
			"TransactionID": txn,
			"OrderID":       orderID,
			"Error":         msg,
		})
	}
	u, err := url.Parse(target)
	if err != nil {
		return err
	}
	q := u.Query()
	if txn != "" {
		q.Set("transactionId", txn)
	}
	if orderID != "" {
		q.Set("orderId", orderID)
	}
	if msg != "" {
		q.Set("error", msg)
	}
	u.RawQuery = q.Encode()
	return c.Redirect(u.String(), fiber.StatusFound)
}
