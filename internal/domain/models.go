package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Enumerations
const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleCashier UserRole = "cashier"

	IntervalMonthly PaymentInterval = "MONTHLY"
	IntervalDaily   PaymentInterval = "DAILY"

	AttendanceUnpaid AttendanceStatus = "UNPAID"
	AttendancePaid   AttendanceStatus = "PAID"

	TransactionPending     TransactionStatus = "PENDING"
	TransactionPaid        TransactionStatus = "PAID"
	TransactionPartialPaid TransactionStatus = "PARTIAL_PAID"
	TransactionFailed      TransactionStatus = "FAILED"

	MethodClick PaymentMethod = "CLICK"
	MethodPayme PaymentMethod = "PAYME"
	MethodCash  PaymentMethod = "CASH"
	MethodCard  PaymentMethod = "CARD"

	PaymentFull    PaymentType = "FULL_PAID"
	PaymentPartial PaymentType = "PARTIAL_PAID"

	StatusPaid          LeaseStatus = "PAID"
	StatusPartiallyPaid LeaseStatus = "PARTIALLY_PAID"
	StatusUnpaid        LeaseStatus = "UNPAID"
	StatusDue           LeaseStatus = "DUE"

	ClickCreated   ClickStatus = 0
	ClickCompleted ClickStatus = 1
	ClickCancelled ClickStatus = -1
)

type UserRole string
type PaymentInterval string
type AttendanceStatus string
type TransactionStatus string
type PaymentMethod string
type PaymentType string
type LeaseStatus string
type ClickStatus int

// Terminal reports whether no further transition is allowed from s.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionPaid || s == TransactionPartialPaid || s == TransactionFailed
}

func (s ClickStatus) Terminal() bool {
	return s == ClickCompleted || s == ClickCancelled
}

type User struct {
	ID           int64
	Name         string
	Email        string
	Role         UserRole
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Owner struct {
	ID         int64
	Name       string
	Identifier string
	Phone      string
	Address    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Section struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

type SaleType struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

type Store struct {
	ID          int64
	StoreNumber string
	Area        decimal.NullDecimal
	SectionID   *int64
	SaleTypeID  *int64
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Stall struct {
	ID          int64
	StallNumber string
	Area        decimal.NullDecimal
	SectionID   *int64
	SaleTypeID  *int64
	DailyFee    decimal.NullDecimal
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Lease struct {
	ID              int64
	OwnerID         int64
	StoreID         *int64
	StallID         *int64
	ShopMonthlyFee  decimal.NullDecimal
	StallMonthlyFee decimal.NullDecimal
	GuardFee        decimal.NullDecimal
	PaymentInterval PaymentInterval
	IssueDate       time.Time
	ExpiryDate      *time.Time
	IsActive        bool
	CertificateNo   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TotalFee is the sum of the three fee fields with nulls counted as zero.
func (l Lease) TotalFee() decimal.Decimal {
	total := decimal.Zero
	for _, f := range []decimal.NullDecimal{l.ShopMonthlyFee, l.StallMonthlyFee, l.GuardFee} {
		if f.Valid {
			total = total.Add(f.Decimal)
		}
	}
	return total
}

type Attendance struct {
	ID        int64
	LeaseID   int64
	StallID   *int64
	Date      time.Time
	Status    AttendanceStatus
	Amount    decimal.Decimal
	CreatedAt time.Time
}

type Transaction struct {
	ID                 int64
	LeaseID            int64
	Amount             decimal.Decimal
	Status             TransactionStatus
	PaymentMethod      PaymentMethod
	PaymentType        PaymentType
	PaymeTransactionID *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type ClickTransaction struct {
	ID              int64
	ClickTransID    string
	ServiceID       string
	ClickPaydocID   string
	MerchantTransID string
	Amount          decimal.Decimal
	Action          int
	Status          ClickStatus
	Error           int
	ErrorNote       string
	SignTime        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
