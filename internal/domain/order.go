package domain

import "github.com/shopspring/decimal"

type ShippingMethod string

const (
	ShipStandard ShippingMethod = "STANDARD"
	ShipExpress  ShippingMethod = "EXPRESS"
	ShipFree     ShippingMethod = "FREE"
)

func ParseShippingMethod(s string) (ShippingMethod, bool) {
	switch m := ShippingMethod(s); m {
	case ShipStandard, ShipExpress, ShipFree:
		return m, true
	case "":
		return ShipStandard, true
	}
	return "", false
}

type PaymentMethod string

const (
	PayGateway PaymentMethod = "SSL_COMMERZ"
	PayCOD     PaymentMethod = "CASH_ON_DELIVERY"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(s); m {
	case PayGateway, PayCOD:
		return m, true
	case "":
		return PayGateway, true
	}
	return "", false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

type GatewayStatus string

const (
	GatewayInitiated GatewayStatus = "INITIATED"
	GatewaySuccess   GatewayStatus = "SUCCESS"
	GatewayFailed    GatewayStatus = "FAILED"
	GatewayCancelled GatewayStatus = "CANCELLED"
)

type Order struct {
	ID                string          `db:"id" json:"id"`
	OrderNumber       string          `db:"order_number" json:"orderNumber"`
	UserID            string          `db:"user_id" json:"userId"`
	ShippingAddressID *string         `db:"shipping_address_id" json:"shippingAddressId"`
	BillingAddressID  *string         `db:"billing_address_id" json:"billingAddressId"`
	Subtotal          decimal.Decimal `db:"subtotal" json:"subtotal"`
	ShippingFee       decimal.Decimal `db:"shipping_fee" json:"shippingFee"`
	Tax               decimal.Decimal `db:"tax" json:"tax"`
	Discount          decimal.Decimal `db:"discount" json:"discount"`
	TotalAmount       decimal.Decimal `db:"total_amount" json:"totalAmount"`
	Status            OrderStatus     `db:"status" json:"status"`
	ShippingMethod    ShippingMethod  `db:"shipping_method" json:"shippingMethod"`
	CustomerNotes     string          `db:"customer_notes" json:"customerNotes,omitempty"`
	CreatedAt         string          `db:"created_at" json:"createdAt"`
	UpdatedAt         string          `db:"updated_at" json:"updatedAt"`

	Items   []OrderItem `db:"-" json:"items"`
	Payment *Payment    `db:"-" json:"payment"`
}

// OrderItem is a snapshot; price and name do not follow later product edits.
type OrderItem struct {
	ID        string          `db:"id" json:"id"`
	OrderID   string          `db:"order_id" json:"orderId"`
	ProductID string          `db:"product_id" json:"productId"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Name      string          `db:"name" json:"name"`
}

type Payment struct {
	ID              string          `db:"id" json:"id"`
	OrderID         string          `db:"order_id" json:"orderId"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Method          PaymentMethod   `db:"method" json:"method"`
	Status          PaymentStatus   `db:"status" json:"status"`
	TransactionID   string          `db:"transaction_id" json:"transactionId"`
	ValID           string          `db:"val_id" json:"valId,omitempty"`
	BankTransaction string          `db:"bank_transaction" json:"bankTransaction,omitempty"`
	CreatedAt       string          `db:"created_at" json:"createdAt"`
	UpdatedAt       string          `db:"updated_at" json:"updatedAt"`
}

type GatewayTransaction struct {
	ID              string          `db:"id" json:"id"`
	TransactionID   string          `db:"transaction_id" json:"transactionId"`
	OrderID         string          `db:"order_id" json:"orderId"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	Currency        string          `db:"currency" json:"currency"`
	SessionKey      string          `db:"session_key" json:"sessionKey"`
	GatewayURL      string          `db:"gateway_url" json:"gatewayUrl"`
	Status          GatewayStatus   `db:"status" json:"status"`
	ValID           string          `db:"val_id" json:"valId,omitempty"`
	BankTransaction string          `db:"bank_transaction" json:"bankTransaction,omitempty"`
	CusName         string          `db:"cus_name" json:"cusName"`
	CusEmail        string          `db:"cus_email" json:"cusEmail"`
	CusPhone        string          `db:"cus_phone" json:"cusPhone"`
	CusAddress      string          `db:"cus_address" json:"cusAddress"`
	Attempts        int             `db:"attempts" json:"attempts"`
	CreatedAt       string          `db:"created_at" json:"createdAt"`
	UpdatedAt       string          `db:"updated_at" json:"updatedAt"`
}
