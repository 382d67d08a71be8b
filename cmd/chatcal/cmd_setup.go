package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/chatcal/internal/config"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("ChatCal Setup Wizard")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		// 1. Timezone for event resolution
		cfg.Timezone = prompt(scanner, "Timezone (IANA name)", cfg.Timezone)

		// 2. Webhook listen address
		cfg.HTTP.Listen = prompt(scanner, "Webhook listen address", cfg.HTTP.Listen)

		// 3. Default event time for date-only events
		cfg.Events.DefaultTime = prompt(scanner, "Default event time (HH:MM)", cfg.Events.DefaultTime)

		// 4. Default event duration
		durationStr := prompt(scanner, "Default event duration (minutes)",
			strconv.Itoa(cfg.Events.DefaultDurationMinutes))
		if n, err := strconv.Atoi(durationStr); err == nil && n > 0 {
			cfg.Events.DefaultDurationMinutes = n
		}

		// 5. Gemini model
		cfg.Gemini.Model = prompt(scanner, "Gemini model", cfg.Gemini.Model)

		// 6. Secrets file
		cfg.Secrets.Path = prompt(scanner, "Secrets file path", cfg.Secrets.Path)

		// 7. GroupMe bot (optional)
		cfg.GroupMe.BotID = prompt(scanner, "GroupMe bot ID (optional)", cfg.GroupMe.BotID)
		if cfg.GroupMe.BotID != "" {
			confirm := prompt(scanner, "Post confirmations back to the group? (true/false)",
				strconv.FormatBool(cfg.GroupMe.PostConfirmation))
			cfg.GroupMe.PostConfirmation = confirm == "true"
		}

		// 8. Telegram bot token (optional)
		cfg.Telegram.Token = prompt(scanner, "Telegram bot token (optional)", cfg.Telegram.Token)

		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		fmt.Println("Next: run `chatcal auth` to mint a Google Calendar refresh token.")
		return nil
	},
}

// prompt displays a labeled prompt with a default value and reads user input.
// If the user enters nothing, the default is returned.
func prompt(scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}
