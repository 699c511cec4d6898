package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wanderplan/wanderplan-go/internal/clock"
	"github.com/wanderplan/wanderplan-go/internal/config"
	"github.com/wanderplan/wanderplan-go/internal/model"
	"github.com/wanderplan/wanderplan-go/internal/service"
)

func userCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administer user accounts",
	}
	cmd.AddCommand(
		userCreateCmd(cfg),
		userSetPasswordCmd(cfg),
		userSetRoleCmd(cfg),
		userActiveCmd(cfg, "activate", "Enable an account", true),
		userActiveCmd(cfg, "deactivate", "Disable an account and revoke its sessions", false),
	)
	return cmd
}

// withAdmin opens the configured stores and runs fn with an AdminService.
func withAdmin(cmd *cobra.Command, cfg *config.Config, fn func(*service.AdminService) error) error {
	a, err := openApp(cmd.Context(), *cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sessions := service.NewSessionService(a.sessions, clock.Real{}, cfg.SessionTTL, nil)
	return fn(service.NewAdminService(a.users, sessions, a.hasher))
}

func userCreateCmd(cfg *config.Config) *cobra.Command {
	var email, username, role, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a verified account; prints a generated password when none is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, cfg, func(admin *service.AdminService) error {
				id, pw, err := admin.CreateUser(cmd.Context(), email, username, role, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, %s)\n", id.ID, id.Email, id.Role)
				if password == "" {
					fmt.Fprintf(cmd.OutOrStdout(), "password: %s\n", pw)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&username, "username", "", "user name")
	cmd.Flags().StringVar(&role, "role", model.RoleUser, "role: user or admin")
	cmd.Flags().StringVar(&password, "password", "", "password (generated when empty)")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("username")
	return cmd
}

func userSetPasswordCmd(cfg *config.Config) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Replace an account's password and revoke its sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, cfg, func(admin *service.AdminService) error {
				pw, err := admin.SetPassword(cmd.Context(), email, password)
				if err != nil {
					return err
				}
				if password == "" {
					fmt.Fprintf(cmd.OutOrStdout(), "password: %s\n", pw)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "password updated")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "new password (generated when empty)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func userSetRoleCmd(cfg *config.Config) *cobra.Command {
	var email, role string

	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Change an account's role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, cfg, func(admin *service.AdminService) error {
				id, err := admin.UserIDByEmail(cmd.Context(), email)
				if err != nil {
					return err
				}
				if err := admin.SetRole(cmd.Context(), id, role); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %d is now %s\n", id, role)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", "", "role: user or admin")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("role")
	return cmd
}

func userActiveCmd(cfg *config.Config, use, short string, active bool) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, cfg, func(admin *service.AdminService) error {
				id, err := admin.UserIDByEmail(cmd.Context(), email)
				if err != nil {
					return err
				}
				if err := admin.SetActive(cmd.Context(), id, active); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %d %sd\n", id, use)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.MarkFlagRequired("email")
	return cmd
}
