package main

import (
	"fmt"
	"io"
	"time"

	"github.com/gookit/color"
)

// Printer renders subscription rows as terminal lines and remembers display names
// of the users it has seen.
type Printer struct {
	out     io.Writer
	colours bool
	names   map[string]string
}

func NewPrinter(out io.Writer, colours bool) *Printer {
	return &Printer{out: out, colours: colours, names: make(map[string]string)}
}

func (p *Printer) Identity(identity, token string) {
	fmt.Fprintf(p.out, "identity: %s\n", p.paint(color.FgCyan, identity))
	fmt.Fprintf(p.out, "CHAT_TOKEN=%s\n", token)
}

func (p *Printer) Row(row map[string]any) {
	table, _ := row["table"].(string)
	op, _ := row["op"].(string)

	switch {
	case table == "user":
		identity, _ := row["identity"].(string)
		if name, ok := row["name"].(string); ok {
			p.names[identity] = name
		}
		state := "offline"
		if online, _ := row["online"].(bool); online {
			state = "online"
		}
		if authorized, _ := row["authorized"].(bool); authorized {
			state += ", authorized"
		}
		fmt.Fprintf(p.out, "%s %s is %s\n", p.paint(color.FgYellow, "*"), p.author(identity), state)
	case table == "message" && op == "reset":
		fmt.Fprintln(p.out, p.paint(color.FgGray, "--- feed ---"))
	case table == "message":
		sender, _ := row["sender"].(string)
		text, _ := row["text"].(string)
		at := ""
		if sent, err := time.Parse(time.RFC3339Nano, fmt.Sprint(row["sent"])); err == nil {
			at = sent.Local().Format(time.TimeOnly)
		}
		fmt.Fprintf(p.out, "[%s] %s: %s\n", at, p.paint(color.FgGreen, p.author(sender)), text)
	}
}

// author falls back to a short identity for users whose row is not visible.
func (p *Printer) author(identity string) string {
	if name, ok := p.names[identity]; ok {
		return name
	}
	if len(identity) > 8 {
		return identity[:8]
	}
	return identity
}

func (p *Printer) paint(c color.Color, s string) string {
	if !p.colours {
		return s
	}
	return c.Render(s)
}
