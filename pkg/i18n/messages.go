// Package i18n holds the user-facing German message catalog and the locale
// aware price/date formatting used in API responses and emails.
package i18n

// Application error codes. Provider codes (Stripe decline codes, auth codes)
// are looked up verbatim.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeAlreadyEnrolled    = "ALREADY_ENROLLED"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInternal           = "INTERNAL_ERROR"
	CodePaymentFailed      = "PAYMENT_FAILED"
	CodePaymentUnavailable = "PAYMENT_UNAVAILABLE"
	CodeInvalidSignature   = "INVALID_SIGNATURE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeCourseUnavailable  = "COURSE_UNAVAILABLE"
	CodeInvalidToken       = "INVALID_TOKEN"
)

// Success message keys.
const (
	MsgEnrollmentCreated   = "enrollment_created"
	MsgProgressUpdated     = "progress_updated"
	MsgCourseCompleted     = "course_completed"
	MsgEnrollmentCancelled = "enrollment_cancelled"
	MsgPaymentInitiated    = "payment_initiated"
	MsgRefundRequested     = "refund_requested"
	MsgContactSent         = "contact_sent"
	MsgRegistered          = "registered"
	MsgLoggedIn            = "logged_in"
)

// DefaultMessage is returned for codes missing from the catalog.
const DefaultMessage = "Ein unerwarteter Fehler ist aufgetreten. Bitte versuchen Sie es später erneut."

var errorMessages = map[string]string{
	CodeUnauthenticated:    "Bitte melden Sie sich an, um fortzufahren.",
	CodeUnauthorized:       "Ihre Sitzung ist ungültig oder abgelaufen. Bitte melden Sie sich erneut an.",
	CodeForbidden:          "Sie haben keine Berechtigung für diese Aktion.",
	CodeNotFound:           "Der angeforderte Eintrag wurde nicht gefunden.",
	CodeConflict:           "Dieser Eintrag existiert bereits.",
	CodeAlreadyEnrolled:    "Sie sind bereits für diesen Kurs angemeldet.",
	CodeValidation:         "Bitte überprüfen Sie Ihre Eingaben.",
	CodeInternal:           DefaultMessage,
	CodePaymentFailed:      "Die Zahlung konnte nicht verarbeitet werden. Bitte versuchen Sie es erneut.",
	CodePaymentUnavailable: "Zahlungen sind derzeit nicht verfügbar.",
	CodeInvalidSignature:   "Ungültige Signatur.",
	CodeRateLimited:        "Zu viele Anfragen. Bitte warten Sie einen Moment und versuchen Sie es erneut.",
	CodeInvalidCredentials: "E-Mail-Adresse oder Passwort ist falsch.",
	CodeEmailTaken:         "Für diese E-Mail-Adresse existiert bereits ein Konto.",
	CodeCourseUnavailable:  "Dieser Kurs ist derzeit nicht buchbar.",
	CodeInvalidToken:       "Der Link ist ungültig oder abgelaufen.",

	// Stripe decline and error codes.
	"card_declined":                         "Ihre Karte wurde abgelehnt.",
	"generic_decline":                       "Ihre Karte wurde abgelehnt.",
	"do_not_honor":                          "Ihre Karte wurde abgelehnt. Bitte wenden Sie sich an Ihre Bank.",
	"insufficient_funds":                    "Ihre Karte ist nicht ausreichend gedeckt.",
	"expired_card":                          "Ihre Karte ist abgelaufen.",
	"incorrect_cvc":                         "Der Sicherheitscode Ihrer Karte ist falsch.",
	"incorrect_number":                      "Die Kartennummer ist falsch.",
	"invalid_expiry_month":                  "Der Ablaufmonat Ihrer Karte ist ungültig.",
	"invalid_expiry_year":                   "Das Ablaufjahr Ihrer Karte ist ungültig.",
	"lost_card":                             "Ihre Karte wurde abgelehnt.",
	"stolen_card":                           "Ihre Karte wurde abgelehnt.",
	"processing_error":                      "Bei der Verarbeitung Ihrer Karte ist ein Fehler aufgetreten.",
	"authentication_required":               "Ihre Bank verlangt eine zusätzliche Bestätigung der Zahlung.",
	"payment_intent_authentication_failure": "Die Bestätigung der Zahlung ist fehlgeschlagen.",
	"amount_too_small":                      "Der Betrag ist zu niedrig.",
	"rate_limit":                            "Der Zahlungsdienst ist derzeit überlastet. Bitte versuchen Sie es später erneut.",

	// Authentication provider codes.
	"invalid_credentials":        "E-Mail-Adresse oder Passwort ist falsch.",
	"email_not_confirmed":        "Bitte bestätigen Sie zuerst Ihre E-Mail-Adresse.",
	"user_already_exists":        "Für diese E-Mail-Adresse existiert bereits ein Konto.",
	"weak_password":              "Das Passwort muss mindestens 8 Zeichen lang sein.",
	"over_email_send_rate_limit": "Zu viele E-Mails angefordert. Bitte warten Sie einige Minuten.",
	"user_not_found":             "Es wurde kein Konto mit dieser E-Mail-Adresse gefunden.",
	"session_expired":            "Ihre Sitzung ist abgelaufen. Bitte melden Sie sich erneut an.",
}

var successMessages = map[string]string{
	MsgEnrollmentCreated:   "Sie haben sich erfolgreich für den Kurs angemeldet.",
	MsgProgressUpdated:     "Ihr Fortschritt wurde gespeichert.",
	MsgCourseCompleted:     "Herzlichen Glückwunsch! Sie haben den Kurs abgeschlossen.",
	MsgEnrollmentCancelled: "Ihre Anmeldung wurde storniert.",
	MsgPaymentInitiated:    "Die Zahlung wurde vorbereitet.",
	MsgRefundRequested:     "Die Rückerstattung wurde veranlasst.",
	MsgContactSent:         "Vielen Dank für Ihre Nachricht. Wir melden uns in Kürze.",
	MsgRegistered:          "Ihr Konto wurde erstellt.",
	MsgLoggedIn:            "Sie haben sich erfolgreich angemeldet.",
}

// Translate maps an error code to its user-facing message.
func Translate(code string) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return DefaultMessage
}

// Lookup returns the catalog message for code and whether it exists.
func Lookup(code string) (string, bool) {
	msg, ok := errorMessages[code]
	return msg, ok
}

// Message returns the success message for key, or an empty string.
func Message(key string) string {
	return successMessages[key]
}
