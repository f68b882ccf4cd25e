package bot

import (
	"fmt"
	"strings"

	"github.com/evyataryagoni/ipinfobot/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Reply texts
const (
	StartMessage = "This bot allows you to get a simple information about " +
		"giving IP address. All data provided by http://ipinfo.io/ service."

	HelpMessage = "Hi! I'm ipinfo.io bot and I can give you IP geolocation " +
		"info about any IP address you send to me.\n\n" +
		"You can control me by sending these commands:\n\n" +
		"/ip {ip} - get information about the IP\n" +
		"/geo {ip} - get location on a map for the IP"

	PongMessage = "pong"

	EmptyAddressMessage = "Please provide a valid ipv4 or ipv6 address for this command. " +
		"Use /help command for examples."

	UnavailableMessage     = "Lookup service is unavailable right now, please try again later."
	RateLimitedMessage     = "Too many requests, please slow down."
	UnknownLocationMessage = "Sorry, location is unknown for this address"
)

// InvalidAddressMessage is the reply for a token that is not an address
func InvalidAddressMessage(token string) string {
	return fmt.Sprintf(`"%s" is not valid ipv4 or ipv6 address`, token)
}

// FormatResult renders a lookup result as a Markdown message
// Missing fields render as empty values
func FormatResult(r *models.LookupResult) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*%s*\n\n", escape(r.IP))

	if r.Bogon {
		sb.WriteString("This is a bogon address: it is private or reserved and has no public location.")
		return sb.String()
	}

	fields := []struct {
		label string
		value string
	}{
		{"Hostname", r.Hostname},
		{"Network", r.Org},
		{"Country", r.Country},
		{"Region", r.Region},
		{"City", r.City},
		{"Latitude/Longitude", r.Loc},
	}
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "*%s*: %s", f.label, escape(f.value))
	}

	return sb.String()
}

// escape protects values such as "ns_1.example.com" from Markdown parsing
func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
