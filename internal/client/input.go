package client

import (
	"bufio"
	"io"
	"strings"
)

// Commands understood by the client itself; anything else is sent to the server
const (
	CmdQuit = "/quit"
	CmdHelp = "/help"
)

// InputHandler reads user lines
type InputHandler struct {
	scanner *bufio.Scanner
}

func NewInputHandler(r io.Reader) *InputHandler {
	return &InputHandler{scanner: bufio.NewScanner(r)}
}

// ReadLine returns the next non-empty line with surrounding space removed.
// ok is false once the input is exhausted.
func (ih *InputHandler) ReadLine() (line string, ok bool) {
	for ih.scanner.Scan() {
		line = strings.TrimSpace(ih.scanner.Text())
		if line != "" {
			return line, true
		}
	}
	return "", false
}
