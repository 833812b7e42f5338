package cart

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MetaPrefix starts every order item meta key written for subscribers.
const MetaPrefix = "Abonat - "

var (
	validate      = validator.New()
	markupPattern = regexp.MustCompile(`<[^>]*>`)
)

// SubscriptionUser is the person a subscription bought in the cart is for.
// One entry exists per unit of the cart line.
type SubscriptionUser struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	SendEmail bool   `json:"send_email"`
}

// MetaEntry is one key/value pair attached to an order line.
type MetaEntry struct {
	Key   string
	Value string
}

// Sanitize cleans submitted users. Invalid emails are dropped rather than
// rejected.
func Sanitize(users []SubscriptionUser) []SubscriptionUser {
	out := make([]SubscriptionUser, 0, len(users))
	for _, u := range users {
		out = append(out, SubscriptionUser{
			Name:      cleanText(u.Name),
			Email:     cleanEmail(u.Email),
			Phone:     cleanText(u.Phone),
			SendEmail: u.SendEmail,
		})
	}
	return out
}

// ItemMeta renders users as order line meta, numbered from 1. Empty fields
// are left out; the send-email flag is always written.
func ItemMeta(users []SubscriptionUser) []MetaEntry {
	var meta []MetaEntry
	for i, u := range Sanitize(users) {
		n := i + 1
		if u.Name != "" {
			meta = append(meta, MetaEntry{Key: metaKey("Nume", n), Value: u.Name})
		}
		if u.Email != "" {
			meta = append(meta, MetaEntry{Key: metaKey("Email", n), Value: u.Email})
		}
		if u.Phone != "" {
			meta = append(meta, MetaEntry{Key: metaKey("Telefon", n), Value: u.Phone})
		}
		send := "Nu"
		if u.SendEmail {
			send = "Da"
		}
		meta = append(meta, MetaEntry{Key: metaKey("Trimite email", n), Value: send})
	}
	return meta
}

func metaKey(field string, n int) string {
	return fmt.Sprintf("%s%s [%d]", MetaPrefix, field, n)
}

func cleanText(s string) string {
	s = markupPattern.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

func cleanEmail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || validate.Var(s, "required,email") != nil {
		return ""
	}
	return s
}
