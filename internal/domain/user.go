package domain

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleSeller   Role = "SELLER"
	RoleAdmin    Role = "ADMIN"
)

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleCustomer, RoleSeller, RoleAdmin:
		return r, true
	}
	return "", false
}

type User struct {
	ID        string `db:"id" json:"id"`
	Email     string `db:"email" json:"email"`
	Name      string `db:"name" json:"name"`
	Phone     string `db:"phone" json:"phone,omitempty"`
	Hash      string `db:"password_hash" json:"-"`
	Role      Role   `db:"role" json:"role"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}

type Address struct {
	ID         string `db:"id" json:"id"`
	UserID     string `db:"user_id" json:"userId"`
	Line1      string `db:"line1" json:"addressLine1"`
	Line2      string `db:"line2" json:"addressLine2,omitempty"`
	City       string `db:"city" json:"city"`
	State      string `db:"state" json:"state,omitempty"`
	PostalCode string `db:"postal_code" json:"postalCode,omitempty"`
	Country    string `db:"country" json:"country"`
	Phone      string `db:"phone" json:"phone,omitempty"`
	CreatedAt  string `db:"created_at" json:"createdAt"`
}
