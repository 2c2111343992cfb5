package client

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// Display prints client events to a writer, one color per category
type Display struct {
	out          io.Writer
	serverColor  *color.Color
	replyColor   *color.Color
	infoColor    *color.Color
	warningColor *color.Color
	errorColor   *color.Color
	now          func() time.Time
}

// NewDisplay creates a display writing to out
func NewDisplay(out io.Writer, colored bool) *Display {
	d := &Display{
		out:          out,
		serverColor:  color.New(color.FgCyan, color.Bold),
		replyColor:   color.New(color.FgGreen),
		infoColor:    color.New(color.FgWhite),
		warningColor: color.New(color.FgYellow),
		errorColor:   color.New(color.FgRed, color.Bold),
		now:          time.Now,
	}
	if !colored {
		for _, c := range []*color.Color{d.serverColor, d.replyColor, d.infoColor, d.warningColor, d.errorColor} {
			c.DisableColor()
		}
	}
	return d
}

// PrintBanner displays the client banner
func (d *Display) PrintBanner() {
	d.serverColor.Fprintln(d.out, `
╔═══════════════════════════════════════╗
║             LOBBY CLIENT              ║
╚═══════════════════════════════════════╝`)
}

// PrintServerStatus displays connection status changes
func (d *Display) PrintServerStatus(message string) {
	d.serverColor.Fprintf(d.out, "[%s] [SERVER] %s\n", d.timestamp(), message)
}

// PrintReply displays data received from the server
func (d *Display) PrintReply(data []byte) {
	d.replyColor.Fprintf(d.out, "[%s] [RECV] %s\n", d.timestamp(), data)
}

func (d *Display) PrintInfo(message string) {
	d.infoColor.Fprintf(d.out, "ℹ️  %s\n", message)
}

func (d *Display) PrintWarning(message string) {
	d.warningColor.Fprintf(d.out, "⚠️  %s\n", message)
}

func (d *Display) PrintError(message string) {
	d.errorColor.Fprintf(d.out, "❌ %s\n", message)
}

func (d *Display) PrintSeparator() {
	fmt.Fprintln(d.out, "────────────────────────────────────────")
}

func (d *Display) timestamp() string {
	return d.now().Format("15:04:05")
}
