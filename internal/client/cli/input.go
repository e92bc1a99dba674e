package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// Seams for tests.
var (
	readPassword = term.ReadPassword
	isTerminal   = func(fd uintptr) bool {
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
)

// GetSimpleText prints a prompt to w and reads one line from reader. If EOF
// occurs after some input was read, the partial line is returned.
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
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

// GetSecret prompts for a value that should not be echoed, such as an OTP.
// On a terminal the input is read without echo; otherwise a line is read
// from reader. The caller should wipe the returned slice.
func GetSecret(reader *bufio.Reader, in io.Reader, prompt string, w io.Writer) ([]byte, error) {
	if f, ok := in.(*os.File); ok && isTerminal(f.Fd()) {
		if _, err := fmt.Fprint(w, prompt+": "); err != nil {
			return nil, err
		}
		secret, err := readPassword(int(f.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return nil, err
		}
		return secret, nil
	}

	line, err := GetSimpleText(reader, prompt, w)
	if err != nil {
		return nil, err
	}
	return []byte(line), nil
}

// promptIfEmpty returns value, or asks for it when it is empty.
func (a *App) promptIfEmpty(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	return GetSimpleText(a.reader, prompt, a.out)
}
