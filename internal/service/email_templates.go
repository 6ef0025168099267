package service

import "html/template"

var emailTemplates = template.Must(template.New("email").Parse(`
{{define "layout"}}<!DOCTYPE html>
<html lang="de">
<head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body style="font-family:Helvetica,Arial,sans-serif;color:#1f2933;max-width:600px;margin:0 auto;padding:24px">
{{template "body" .}}
<hr style="border:none;border-top:1px solid #e4e7eb;margin:32px 0 16px">
<p style="font-size:12px;color:#7b8794">{{.Seller}}</p>
</body>
</html>{{end}}

{{define "enrollment_confirmation"}}
<h1 style="font-size:20px">Ihre Anmeldung ist bestätigt</h1>
<p>Hallo {{.Data.Name}},</p>
<p>vielen Dank für Ihre Anmeldung zum Kurs <strong>{{.Data.CourseTitle}}</strong>.</p>
{{if .Data.ScheduleLabel}}<p>Termin: {{.Data.ScheduleLabel}}{{if .Data.Location}}<br>Ort: {{.Data.Location}}{{end}}</p>{{end}}
{{if .Data.DashboardURL}}<p><a href="{{.Data.DashboardURL}}">Zu meinen Kursen</a></p>{{end}}
{{end}}

{{define "payment_receipt"}}
<h1 style="font-size:20px">Zahlungsbestätigung</h1>
<p>Hallo {{.Data.Name}},</p>
<p>wir haben Ihre Zahlung für <strong>{{.Data.CourseTitle}}</strong> erhalten.</p>
<table style="border-collapse:collapse">
<tr><td style="padding:4px 16px 4px 0">Betrag</td><td>{{.Data.Amount}}</td></tr>
<tr><td style="padding:4px 16px 4px 0">Zahlungsart</td><td>{{.Data.PaymentMethod}}</td></tr>
<tr><td style="padding:4px 16px 4px 0">Datum</td><td>{{.Data.PaidAt}}</td></tr>
{{if .Data.ReceiptNumber}}<tr><td style="padding:4px 16px 4px 0">Belegnummer</td><td>{{.Data.ReceiptNumber}}</td></tr>{{end}}
</table>
{{if .Data.DownloadURL}}<p><a href="{{.Data.DownloadURL}}">Beleg herunterladen (PDF)</a></p>{{end}}
{{end}}

{{define "contact_notification"}}
<h1 style="font-size:20px">Neue Kontaktanfrage</h1>
<p><strong>Von:</strong> {{.Data.Name}} &lt;{{.Data.Email}}&gt;</p>
{{if .Data.Subject}}<p><strong>Betreff:</strong> {{.Data.Subject}}</p>{{end}}
<p style="white-space:pre-wrap">{{.Data.Message}}</p>
{{end}}
`))
