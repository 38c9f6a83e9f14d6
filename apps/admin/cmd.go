package main

import (
	"database/sql"
	"fmt"
	"io"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shafisadique/school-project-sub003/core/school"
	"github.com/shafisadique/school-project-sub003/core/superadmin"
	"github.com/shafisadique/school-project-sub003/core/user"
	"github.com/shafisadique/school-project-sub003/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	migrateFunc      = database.Migrate  // mockable

	errEmptyPassword = errors.New("password cannot be empty")
	errPwdMismatch   = errors.New("passwords do not match")
)

type commandLine struct {
	db        *sql.DB // nil with the in-memory engine
	usrSvc    user.ServiceInterface
	saSvc     *superadmin.Service
	schoolSvc *school.Service
	validate  *validator.Validate
	out       io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Shule administration commands",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(cli.out)
	root.AddCommand(
		cli.migrateCmd(),
		cli.addSchoolCmd(),
		cli.addUserCmd(),
		cli.addSuperadminCmd(),
		cli.resetPasswordCmd(),
	)
	return root
}

func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	return root.Execute()
}

// promptPassword reads a password from the terminal without echoing it.
// confirm asks for it a second time.
func (cli *commandLine) promptPassword(confirm bool) (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return "", errEmptyPassword
	}
	if !confirm {
		return string(pwd), nil
	}

	_, _ = fmt.Fprint(cli.out, "Confirm password:")
	again, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if string(again) != string(pwd) {
		return "", errPwdMismatch
	}
	return string(pwd), nil
}
