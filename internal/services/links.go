package services

import (
	"net/url"
	"strings"
)

const whatsAppHost = "https://wa.me/"

// WhatsAppLink builds the chat deep link for the cafe number with the order
// text prefilled. The number keeps digits only; wa.me rejects plus signs and
// separators.
func WhatsAppLink(phone, message string) string {
	digits := digitsOnly(phone)
	if digits == "" {
		return ""
	}
	return whatsAppHost + digits + "?text=" + url.QueryEscape(message)
}

// MailtoLink builds a mail-compose URI carrying the order as subject and body.
func MailtoLink(email, subject, body string) string {
	addr := strings.TrimSpace(email)
	if addr == "" {
		return ""
	}
	values := url.Values{}
	values.Set("subject", subject)
	values.Set("body", body)
	// mailto bodies need percent encoded spaces, not form encoding.
	query := strings.ReplaceAll(values.Encode(), "+", "%20")
	return "mailto:" + addr + "?" + query
}

func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
