package notification

import (
	"bytes"
	"html/template"
)

var funcs = template.FuncMap{
	"rupiah": FormatRupiah,
	"number": FormatNumber,
}

var successTemplate = template.Must(template.New("success").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="id">
<head><meta charset="UTF-8"><title>Pembayaran Berhasil</title></head>
<body style="margin:0;padding:0;font-family:Arial,sans-serif;background-color:#f4f4f5;">
  <table align="center" width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;">
    <tr><td style="padding:32px;">
      <h1 style="margin:0 0 16px;font-size:22px;color:#16a34a;">Pembayaran Berhasil</h1>
      <p>Halo{{if .UserName}} {{.UserName}}{{end}},</p>
      <p>Terima kasih, pembayaran kamu sudah kami terima.</p>
      <table cellpadding="6" style="font-size:14px;">
        <tr><td>Jumlah</td><td><strong>{{rupiah .Amount}}</strong></td></tr>
        {{if .PlanLabel}}<tr><td>Paket</td><td>{{.PlanLabel}}</td></tr>{{end}}
        {{if gt .Credits 0}}<tr><td>Kredit dibeli</td><td>{{number .Credits}} kredit</td></tr>
        <tr><td>Total kredit</td><td>{{number .NewTotalCredits}} kredit</td></tr>{{end}}
        <tr><td>ID Transaksi</td><td>{{.TransactionID}}</td></tr>
        <tr><td>Waktu</td><td>{{.PaidAt}}</td></tr>
      </table>
      <p style="margin-top:24px;"><a href="{{.AppURL}}/subscription/overview" style="color:#2563eb;">Lihat langganan</a></p>
    </td></tr>
  </table>
</body>
</html>`))

var failedTemplate = template.Must(template.New("failed").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="id">
<head><meta charset="UTF-8"><title>Pembayaran Gagal</title></head>
<body style="margin:0;padding:0;font-family:Arial,sans-serif;background-color:#f4f4f5;">
  <table align="center" width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;">
    <tr><td style="padding:32px;">
      <h1 style="margin:0 0 16px;font-size:22px;color:#dc2626;">Pembayaran Gagal</h1>
      <p>Halo{{if .UserName}} {{.UserName}}{{end}},</p>
      <p>Pembayaran sebesar <strong>{{rupiah .Amount}}</strong> tidak berhasil diproses.</p>
      {{if .FailureReason}}<p>Alasan: {{.FailureReason}}</p>{{end}}
      <p>ID Transaksi: {{.TransactionID}}</p>
      <p style="margin-top:24px;"><a href="{{.AppURL}}/subscription/topup" style="color:#2563eb;">Coba lagi</a></p>
    </td></tr>
  </table>
</body>
</html>`))

type successView struct {
	PaymentSuccessEmail
	PaidAt string
	AppURL string
}

type failedView struct {
	PaymentFailedEmail
	AppURL string
}

// RenderPaymentSuccess builds the HTML body of a confirmation email.
func RenderPaymentSuccess(email PaymentSuccessEmail, appURL string) (string, error) {
	var buf bytes.Buffer
	err := successTemplate.Execute(&buf, successView{
		PaymentSuccessEmail: email,
		PaidAt:              FormatDate(email.PaidAt),
		AppURL:              appURL,
	})
	return buf.String(), err
}

// RenderPaymentFailed builds the HTML body of a failure email.
func RenderPaymentFailed(email PaymentFailedEmail, appURL string) (string, error) {
	var buf bytes.Buffer
	err := failedTemplate.Execute(&buf, failedView{PaymentFailedEmail: email, AppURL: appURL})
	return buf.String(), err
}
