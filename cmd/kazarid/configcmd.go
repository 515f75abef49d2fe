package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kazari/kazarid/internal/config"
	"github.com/kazari/kazarid/internal/database"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the effective configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				fmt.Println(cfg.String())
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(cfgPath)
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the current configuration to the config file",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				if err := config.SaveFile(cfgPath, cfg); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", cfgPath)
				return nil
			},
		},
	)

	return cmd
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print("This will delete all session history. Are you sure? (yes/no): ")
			var response string
			fmt.Scanln(&response)

			if response != "yes" && response != "y" {
				fmt.Println("Operation cancelled")
				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.Connect(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			repo := database.NewRepository(db)
			if err := repo.Clear(); err != nil {
				return err
			}

			fmt.Println("Session history cleared successfully")
			return nil
		},
	}
}
