package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/dailyq/dailyq/core/admin"
	"github.com/dailyq/dailyq/core/student"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	adminSvc   *admin.Service
	studentSvc *student.Service
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME - create an admin, or set the password of an existing one")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME - reset an admin's password")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a migration command: up, up-by-one, up-to, down, down-to, redo, reset, status, version")
	fmt.Fprintln(cli.out, "  generatepins [-all] - give a random PIN to students without one (or to every student)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The admin's username. The password will be prompted next.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The admin's username. The password will be prompted next.")

	generatePINsCmd := flag.NewFlagSet("generatepins", flag.ContinueOnError)
	generatePINsAll := generatePINsCmd.Bool("all", false, "Replace the PIN of every student, not only of those without one.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, generatePINsCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserUname == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserUname, pwd)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "generatepins":
		if err := generatePINsCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		target := student.TargetNoPIN
		if *generatePINsAll {
			target = student.TargetAll
		}
		return cli.generatePINs(target)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// describeError renders validation errors with their translated messages.
func (cli *commandLine) describeError(err error) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) && cli.translator != nil {
		msgs := make([]string, 0, len(vErrs))
		for _, vErr := range vErrs {
			msgs = append(msgs, vErr.Translate(cli.translator))
		}
		return strings.Join(msgs, "; ")
	}
	return err.Error()
}
