package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type PaymentRepo struct{ q sqlx.ExtContext }

func NewPaymentRepo(q sqlx.ExtContext) *PaymentRepo { return &PaymentRepo{q: q} }

const paymentCols = `
    id, order_id, amount, method, status, transaction_id, val_id, bank_transaction,
    COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

const gatewayCols = `
    id, transaction_id, order_id, amount, currency, session_key, gateway_url, status,
    val_id, bank_transaction, cus_name, cus_email, cus_phone, cus_address, attempts,
    COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	_, err := r.q.ExecContext(ctx, `
	  INSERT INTO payments(id, order_id, amount, method, status, transaction_id)
	  VALUES(?,?,?,?,?,?)`, p.ID, p.OrderID, p.Amount, p.Method, p.Status, p.TransactionID)
	return err
}

func (r *PaymentRepo) ByOrder(ctx context.Context, orderID string) (*domain.Payment, error) {
	var p domain.Payment
	if err := sqlx.GetContext(ctx, r.q, &p, `SELECT `+paymentCols+` FROM payments WHERE order_id=?`, orderID); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetStatus never moves a COMPLETED payment.
func (r *PaymentRepo) SetStatus(ctx context.Context, txnID string, st domain.PaymentStatus) error {
	return affected(r.q.ExecContext(ctx, `
	  UPDATE payments SET status=?, updated_at=CURRENT_TIMESTAMP
	  WHERE transaction_id=? AND status <> 'COMPLETED'`, st, txnID))
}

// Complete marks the payment settled and records gateway references.
func (r *PaymentRepo) Complete(ctx context.Context, txnID, valID, bankTxn string) error {
	return affected(r.q.ExecContext(ctx, `
	  UPDATE payments
	  SET status='COMPLETED', val_id=?, bank_transaction=?, updated_at=CURRENT_TIMESTAMP
	  WHERE transaction_id=?`, valID, bankTxn, txnID))
}

// UpsertGateway records an INITIATED session. Re-initiating the same
// transaction refreshes the session and bumps attempts.
func (r *PaymentRepo) UpsertGateway(ctx context.Context, g *domain.GatewayTransaction) error {
	_, err := r.q.ExecContext(ctx, `
	  INSERT INTO gateway_transactions
	    (id, transaction_id, order_id, amount, currency, session_key, gateway_url, status,
	     cus_name, cus_email, cus_phone, cus_address, attempts)
	  VALUES(?,?,?,?,?,?,?,'INITIATED',?,?,?,?,1)
	  ON CONFLICT(transaction_id) DO UPDATE SET
	    amount=excluded.amount, currency=excluded.currency,
	    session_key=excluded.session_key, gateway_url=excluded.gateway_url,
	    status='INITIATED', cus_name=excluded.cus_name, cus_email=excluded.cus_email,
	    cus_phone=excluded.cus_phone, cus_address=excluded.cus_address,
	    attempts=gateway_transactions.attempts+1, updated_at=CURRENT_TIMESTAMP`,
		g.ID, g.TransactionID, g.OrderID, g.Amount, g.Currency, g.SessionKey, g.GatewayURL,
		g.CusName, g.CusEmail, g.CusPhone, g.CusAddress)
	return err
}

func (r *PaymentRepo) Gateway(ctx context.Context, txnID string) (*domain.GatewayTransaction, error) {
	var g domain.GatewayTransaction
	if err := sqlx.GetContext(ctx, r.q, &g, `SELECT `+gatewayCols+` FROM gateway_transactions WHERE transaction_id=?`, txnID); err != nil {
		return nil, err
	}
	return &g, nil
}

// SetGatewayStatus never moves a SUCCESS transaction.
func (r *PaymentRepo) SetGatewayStatus(ctx context.Context, txnID string, st domain.GatewayStatus) error {
	return affected(r.q.ExecContext(ctx, `
	  UPDATE gateway_transactions SET status=?, updated_at=CURRENT_TIMESTAMP
	  WHERE transaction_id=? AND status <> 'SUCCESS'`, st, txnID))
}

// SucceedGateway flips a non-SUCCESS transaction to SUCCESS. ErrNoRows
// means it was already settled or does not exist.
func (r *PaymentRepo) SucceedGateway(ctx context.Context, txnID, valID, bankTxn string) error {
	return affected(r.q.ExecContext(ctx, `
	  UPDATE gateway_transactions
	  SET status='SUCCESS', val_id=?, bank_transaction=?, updated_at=CURRENT_TIMESTAMP
	  WHERE transaction_id=? AND status <> 'SUCCESS'`, valID, bankTxn, txnID))
}
