package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/escolario/internal/common"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prints prompt to w and reads a password from the terminal
// behind fd without echo.
func GetPassword(fd int, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"> "); err != nil {
		return "", err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// LineReader reads one answer per call. secret asks for input that must not
// be echoed.
type LineReader interface {
	ReadLine(prompt string, secret bool) (string, error)
}

// Console reads from a buffered reader and, for secrets, from the terminal
// when stdin is one.
type Console struct {
	reader *bufio.Reader
	w      io.Writer
	fd     int
}

func NewConsole(in *os.File, w io.Writer) *Console {
	return &Console{reader: bufio.NewReader(in), w: w, fd: int(in.Fd())}
}

func (c *Console) ReadLine(prompt string, secret bool) (string, error) {
	if secret && isTerminal(c.fd) {
		return GetPassword(c.fd, prompt, c.w)
	}
	return GetSimpleText(c.reader, prompt, c.w)
}
