// Package messaging builds outbound WhatsApp deep links. Nothing is
// delivered from the server; staff open the link on their phone.
package messaging

import (
	"bytes"
	"net/url"
	"strings"
	"text/template"
	"time"
	"unicode"

	"github.com/onixgym/backend/internal/domain/shared"
)

const waBaseURL = "https://wa.me/"

// MonthNames are the Spanish month names used in messages
var MonthNames = [12]string{
	"ENERO", "FEBRERO", "MARZO", "ABRIL", "MAYO", "JUNIO",
	"JULIO", "AGOSTO", "SEPTIEMBRE", "OCTUBRE", "NOVIEMBRE", "DICIEMBRE",
}

var (
	cardTemplate = template.Must(template.New("card").Parse(
		"Hola {{.Name}} 👋\n\n" +
			"✅ *Mes de {{.MonthName}} {{.Year}} abonado correctamente.*\n\n" +
			"📎 Te dejamos tu carnet actualizado:\n{{.CardURL}}\n\n" +
			"💪 ¡Gracias por entrenar con {{.GymName}}!"))

	reminderTemplate = template.Must(template.New("reminder").Parse(
		"¡Hola {{.Name}}! 👋\n\n" +
			"⏰ *RECORDATORIO DE RENOVACIÓN*\n\n" +
			"Tu membresía vence el *{{.Expiration}}*\n" +
			"Te recomendamos realizar el pago con anticipación para mantener tu acceso al gimnasio.\n\n" +
			"¡No pierdas tus beneficios! 💪\n" +
			"_{{.GymName}}_"))
)

// Link is a ready-to-open WhatsApp conversation
type Link struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// CardMessage is the "your month is paid" notice sent with the card
type CardMessage struct {
	Phone   string
	Name    string
	Month   int
	Year    int
	CardURL string
}

// ReminderMessage warns a member their membership is about to lapse
type ReminderMessage struct {
	Phone      string
	Name       string
	Expiration time.Time
}

// WhatsAppLinkBuilder renders messages and wraps them in wa.me links
type WhatsAppLinkBuilder struct {
	countryCode string
	gymName     string
}

// NewWhatsAppLinkBuilder creates a builder. countryCode is prepended to
// numbers that do not already start with it.
func NewWhatsAppLinkBuilder(countryCode, gymName string) *WhatsAppLinkBuilder {
	if countryCode == "" {
		countryCode = "54"
	}
	if gymName == "" {
		gymName = "ONIX GYM"
	}
	return &WhatsAppLinkBuilder{countryCode: countryCode, gymName: gymName}
}

// CardLink builds the link announcing a paid month with the card URL
func (b *WhatsAppLinkBuilder) CardLink(msg CardMessage) (*Link, error) {
	switch {
	case strings.TrimSpace(msg.Phone) == "":
		return nil, invalid("Phone number is required")
	case strings.TrimSpace(msg.Name) == "":
		return nil, invalid("Name is required")
	case strings.TrimSpace(msg.CardURL) == "":
		return nil, invalid("Card URL is required")
	case msg.Month < 1 || msg.Month > 12:
		return nil, invalid("Month must be between 1 and 12")
	}

	text, err := render(cardTemplate, map[string]any{
		"Name":      strings.TrimSpace(msg.Name),
		"MonthName": MonthNames[msg.Month-1],
		"Year":      msg.Year,
		"CardURL":   msg.CardURL,
		"GymName":   b.gymName,
	})
	if err != nil {
		return nil, err
	}
	return b.link(msg.Phone, text)
}

// ReminderLink builds the renewal reminder for an expiring membership
func (b *WhatsAppLinkBuilder) ReminderLink(msg ReminderMessage) (*Link, error) {
	switch {
	case strings.TrimSpace(msg.Phone) == "":
		return nil, invalid("Phone number is required")
	case strings.TrimSpace(msg.Name) == "":
		return nil, invalid("Name is required")
	case msg.Expiration.IsZero():
		return nil, invalid("Expiration date is required")
	}

	text, err := render(reminderTemplate, map[string]any{
		"Name":       strings.TrimSpace(msg.Name),
		"Expiration": msg.Expiration.Format("02/01/2006"),
		"GymName":    b.gymName,
	})
	if err != nil {
		return nil, err
	}
	return b.link(msg.Phone, text)
}

func (b *WhatsAppLinkBuilder) link(phone, text string) (*Link, error) {
	normalized := b.NormalizePhone(phone)
	if len(normalized) <= len(b.countryCode) {
		return nil, invalid("Phone number has no digits")
	}
	return &Link{
		Phone:   normalized,
		Message: text,
		URL:     waBaseURL + normalized + "?text=" + encodeComponent(text),
	}, nil
}

// NormalizePhone keeps the digits and prefixes the country code
func (b *WhatsAppLinkBuilder) NormalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if !strings.HasPrefix(digits, b.countryCode) {
		digits = b.countryCode + digits
	}
	return digits
}

// encodeComponent escapes like encodeURIComponent: spaces become %20
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func render(tmpl *template.Template, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", shared.NewDomainError("MESSAGE_RENDER_FAILED", "Failed to render message: "+err.Error())
	}
	return buf.String(), nil
}

func invalid(msg string) error {
	return shared.NewDomainError("VALIDATION_ERROR", msg)
}
