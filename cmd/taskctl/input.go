package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is replaced in tests.
var readPassword = term.ReadPassword

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// prompt prints label and reads one line of input.
func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label+": ")
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// password reads a password without echo when stdin is a terminal.
func (a *app) password() (string, error) {
	if !a.stdinTTY {
		return a.prompt("Password")
	}

	fmt.Fprint(a.out, "Password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// credentials fills in whatever the flags left empty.
func (a *app) credentials(email, password string) (string, string, error) {
	var err error
	if email == "" {
		if email, err = a.prompt("Email"); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = a.password(); err != nil {
			return "", "", err
		}
	}
	return email, password, nil
}
