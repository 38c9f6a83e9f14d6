package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/shafisadique/school-project-sub003/core/auth"
	"github.com/shafisadique/school-project-sub003/core/school"
	"github.com/shafisadique/school-project-sub003/core/superadmin"
	"github.com/shafisadique/school-project-sub003/core/user"
)

func (cli *commandLine) addSchoolCmd() *cobra.Command {
	var name, plan string
	cmd := &cobra.Command{
		Use:   "addschool",
		Short: "Create a school",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := cli.schoolSvc.Create(context.Background(), name, school.Plan(plan))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "school %q created: %s\n", sch.Name, sch.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "the school's name")
	cmd.Flags().StringVar(&plan, "plan", string(school.PlanFree), "free|standard|premium")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (cli *commandLine) addUserCmd() *cobra.Command {
	var nu user.NewUser
	var role string
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a school account. The password is prompted next.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			if _, err := cli.schoolSvc.GetByID(ctx, nu.SchoolID); err != nil {
				return errors.Wrap(err, "finding school")
			}
			pwd, err := cli.promptPassword(true)
			if err != nil {
				return err
			}
			nu.Role = auth.Role(role)
			nu.Password, nu.PasswordConfirm = pwd, pwd
			if err = nu.Validate(cli.validate); err != nil {
				return err
			}
			usr, err := cli.usrSvc.Create(ctx, nu)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "%s %q created: %s\n", usr.Role, usr.Name, usr.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&nu.SchoolID, "school", "", "the school's ID")
	cmd.Flags().StringVar(&nu.Name, "name", "", "the user's full name")
	cmd.Flags().StringVar(&nu.Username, "username", "", "login username (username and/or email is required)")
	cmd.Flags().StringVar(&nu.Email, "email", "", "login email")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleAdmin), "admin|teacher|student|parent")
	_ = cmd.MarkFlagRequired("school")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (cli *commandLine) addSuperadminCmd() *cobra.Command {
	var ns superadmin.NewSuperadmin
	cmd := &cobra.Command{
		Use:   "addsuperadmin",
		Short: "Create a platform superadmin. The password is prompted next.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := cli.promptPassword(true)
			if err != nil {
				return err
			}
			ns.Password, ns.PasswordConfirm = pwd, pwd
			if err = ns.Validate(cli.validate); err != nil {
				return err
			}
			sa, err := cli.saSvc.Create(context.Background(), ns)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cli.out, "superadmin %q created: %s\n", sa.Email, sa.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&ns.Name, "name", "", "the superadmin's full name")
	cmd.Flags().StringVar(&ns.Email, "email", "", "login email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
