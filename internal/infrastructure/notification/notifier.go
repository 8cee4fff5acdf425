// Package notification delivers payment emails.
package notification

import (
	"context"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	SubjectPaymentSuccess = "Pembayaran Berhasil - Makalah AI"
	SubjectPaymentFailed  = "Pembayaran Gagal - Makalah AI"
)

// PaymentSuccessEmail is the content of a payment confirmation.
type PaymentSuccessEmail struct {
	To              string
	UserName        string
	Amount          int64
	Credits         int64
	NewTotalCredits int64
	PlanLabel       string
	TransactionID   string
	PaidAt          time.Time
}

// PaymentFailedEmail is the content of a payment failure notice.
type PaymentFailedEmail struct {
	To            string
	UserName      string
	Amount        int64
	FailureReason string
	TransactionID string
}

// Notifier sends payment emails. Implementations must be safe for concurrent use.
type Notifier interface {
	SendPaymentSuccess(ctx context.Context, email PaymentSuccessEmail) error
	SendPaymentFailed(ctx context.Context, email PaymentFailedEmail) error
}

type noopNotifier struct{}

// NewNoopNotifier returns a Notifier that drops every email.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) SendPaymentSuccess(context.Context, PaymentSuccessEmail) error { return nil }
func (noopNotifier) SendPaymentFailed(context.Context, PaymentFailedEmail) error   { return nil }

var jakarta = loadJakarta()

func loadJakarta() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

var indonesianMonths = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// FormatDate renders t the way id-ID medium date, short time does, in WIB.
func FormatDate(t time.Time) string {
	local := t.In(jakarta)
	return local.Format("2") + " " + indonesianMonths[local.Month()-1] + " " + local.Format("2006, 15.04") + " WIB"
}

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an IDR amount as "Rp 80.000".
func FormatRupiah(amount int64) string {
	return "Rp " + FormatNumber(amount)
}

// FormatNumber renders n with id-ID thousands separators.
func FormatNumber(n int64) string {
	return idPrinter.Sprintf("%d", n)
}
