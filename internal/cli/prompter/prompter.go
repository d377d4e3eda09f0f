package prompter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Input and Output are swapped out in tests
var (
	Input  io.Reader = os.Stdin
	Output io.Writer = os.Stdout
)

var reader *bufio.Reader

func lineReader() *bufio.Reader {
	if reader == nil {
		reader = bufio.NewReader(Input)
	}
	return reader
}

// Reset drops buffered input after Input changes
func Reset() {
	reader = nil
}

// PromptString prompts for a line of input
func PromptString(label string) (string, error) {
	fmt.Fprint(Output, label)
	input, err := lineReader().ReadString('\n')
	if err != nil && !(err == io.EOF && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// PromptPassword reads a password without echo when stdin is a terminal
func PromptPassword(label string) (string, error) {
	f, ok := Input.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return PromptString(label)
	}

	fmt.Fprint(Output, label)
	pw, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(Output)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// PromptConfirm prompts for yes/no confirmation
func PromptConfirm(label string) (bool, error) {
	input, err := PromptString(label + " (y/n) ")
	if err != nil {
		return false, err
	}
	input = strings.ToLower(input)
	return input == "y" || input == "yes", nil
}
