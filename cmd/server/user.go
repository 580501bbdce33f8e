package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"collabforge/internal/auth"
	"collabforge/internal/repository"
	"collabforge/internal/server"
	"collabforge/internal/service"
)

var (
	username string
	email    string
	password string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts and issue access tokens",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, closeDB, err := openUserService()
		if err != nil {
			return err
		}
		defer closeDB()

		user, err := users.Create(cmd.Context(), username, email, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", user.Username, user.ID)
		return nil
	},
}

var userTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token for an existing account",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, closeDB, err := openUserService()
		if err != nil {
			return err
		}
		defer closeDB()

		user, err := users.Authenticate(cmd.Context(), email, password)
		if err != nil {
			return err
		}

		tokens := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
		token, err := tokens.GenerateToken(user.ID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func openUserService() (*service.UserService, func(), error) {
	db, err := repository.Open(cfg.Database, server.GormLogLevel())
	if err != nil {
		return nil, nil, err
	}
	if err := repository.AutoMigrate(db); err != nil {
		closeDB(db)
		return nil, nil, err
	}
	return service.NewUserService(repository.NewUserRepository(db)), func() { closeDB(db) }, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func init() {
	userCreateCmd.Flags().StringVar(&username, "username", "", "display name")
	userCreateCmd.Flags().StringVar(&email, "email", "", "login email")
	userCreateCmd.Flags().StringVar(&password, "password", "", "login password")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userTokenCmd.Flags().StringVar(&email, "email", "", "login email")
	userTokenCmd.Flags().StringVar(&password, "password", "", "login password")
	_ = userTokenCmd.MarkFlagRequired("email")
	_ = userTokenCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd, userTokenCmd)
	rootCmd.AddCommand(userCmd)
}
