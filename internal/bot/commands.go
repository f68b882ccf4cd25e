package bot

import (
	"net/netip"
	"strings"
	"unicode"
)

// Command names
const (
	CommandStart = "start"
	CommandHelp  = "help"
	CommandPing  = "ping"
	CommandIP    = "ip"
	CommandGeo   = "geo"
)

// Command is a parsed chat message
type Command struct {
	Name string // one of the Command* constants
	Arg  string // everything after the command, trimmed
}

// ParseCommand extracts a command from message text
//
//	"/ip 8.8.8.8"          -> {ip, "8.8.8.8"}
//	"/geo@ipinfobot ::1"   -> {geo, "::1"}
//	"8.8.8.8"              -> {ip, "8.8.8.8"}
//
// Commands addressed to another bot, unknown commands and plain text
// that is not an address report ok == false.
func ParseCommand(text, botName string) (Command, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Command{}, false
	}

	if !strings.HasPrefix(text, "/") {
		// A bare address is shorthand for /ip
		if _, err := netip.ParseAddr(text); err != nil {
			return Command{}, false
		}
		return Command{Name: CommandIP, Arg: text}, true
	}

	head, rest := text[1:], ""
	if i := strings.IndexFunc(head, unicode.IsSpace); i >= 0 {
		head, rest = head[:i], head[i:]
	}
	name, mention, mentioned := strings.Cut(head, "@")
	if mentioned && botName != "" && !strings.EqualFold(mention, botName) {
		return Command{}, false
	}

	name = strings.ToLower(name)
	switch name {
	case CommandStart, CommandHelp, CommandPing, CommandIP, CommandGeo:
		return Command{Name: name, Arg: strings.TrimSpace(rest)}, true
	default:
		return Command{}, false
	}
}
