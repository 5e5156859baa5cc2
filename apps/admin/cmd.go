package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	repos    *database.Repositories
	usrSvc   *user.Service
	ttSvc    *timetable.Service
	validate *validator.Validate
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (sql engines only)")
	fmt.Println("  adduser -username USERNAME -name NAME -role ADMIN|TEACHER|STUDENT [-email EMAIL] [-approved] - create a user")
	fmt.Println("  resetpassword -username USERNAME - reset user's password")
	fmt.Println("  seed - load demo users and lectures")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserRole := addUserCmd.String("role", string(core.RoleStudent), "One of ADMIN, TEACHER or STUDENT.")
	addUserApproved := addUserCmd.Bool("approved", false, "Approve a teacher account right away.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwdConfirm, err := promptPassword("Confirm password:")
		if err != nil {
			return err
		}
		return cli.addUser(user.NewUser{
			Name:            *addUserName,
			Username:        *addUserUname,
			Email:           *addUserEmail,
			Role:            core.Role(*addUserRole),
			IsApproved:      *addUserApproved,
			Password:        pwd,
			PasswordConfirm: pwdConfirm,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "seed":
		return cli.seed()

	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
