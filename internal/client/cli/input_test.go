package cli

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("  hello world \n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if out.String() != "Name?\n> " {
		t.Fatalf("prompt = %q", out.String())
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}

	_, err = GetSimpleText(bufio.NewReader(strings.NewReader("")), "Name?", &out)
	if err == nil {
		t.Fatal("expected EOF error")
	}
}

func TestGetSecret_NonTerminalReadsLine(t *testing.T) {
	src := strings.NewReader("654321\n")
	var out bytes.Buffer

	got, err := GetSecret(bufio.NewReader(src), src, "Enter OTP", &out)
	require.NoError(t, err)
	require.Equal(t, "654321", string(got))
}

func TestGetSecret_TerminalUsesNoEcho(t *testing.T) {
	oldRead, oldTTY := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = oldRead, oldTTY })
	isTerminal = func(uintptr) bool { return true }

	readPassword = func(int) ([]byte, error) { return []byte("111222"), nil }
	var out bytes.Buffer
	got, err := GetSecret(bufio.NewReader(os.Stdin), os.Stdin, "Enter OTP", &out)
	require.NoError(t, err)
	require.Equal(t, "111222", string(got))
	require.Equal(t, "Enter OTP: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetSecret(bufio.NewReader(os.Stdin), os.Stdin, "Enter OTP", &out)
	require.Error(t, err)
}
