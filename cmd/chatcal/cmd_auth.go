package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

func init() {
	rootCmd.AddCommand(authCmd)

	authCmd.Flags().String("client-id", "", "Google OAuth client ID")
	authCmd.Flags().String("client-secret", "", "Google OAuth client secret")
	authCmd.Flags().Bool("write", false, "write the refresh token into the secrets file")
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Mint a Google Calendar refresh token",
	Long: `Runs the OAuth authorization-code flow against Google and prints the
resulting refresh token. The daemon only ever uses the refresh grant, so
this is a one-time step per calendar account.`,
	Args: cobra.NoArgs,
	RunE: runAuth,
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	clientID, _ := cmd.Flags().GetString("client-id")
	clientSecret, _ := cmd.Flags().GetString("client-secret")
	write, _ := cmd.Flags().GetBool("write")

	// Fall back to whatever the secrets file already holds, so re-auth
	// after a revoked grant needs no flags.
	stored, _ := readSecretsFile(cfg.Secrets.Path)
	if clientID == "" {
		clientID, _ = stored["client_id"].(string)
	}
	if clientSecret == "" {
		clientSecret, _ = stored["client_secret"].(string)
	}
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("client ID and secret are required (flags or secrets file)")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarEventsScope},
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
	}

	url := oauthCfg.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Println("Open this URL in a browser and approve access:")
	fmt.Println()
	fmt.Println("  " + url)
	fmt.Println()
	fmt.Print("Paste the authorization code here: ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return fmt.Errorf("no authorization code entered")
	}
	code := strings.TrimSpace(scanner.Text())
	if code == "" {
		return fmt.Errorf("no authorization code entered")
	}

	token, err := oauthCfg.Exchange(cmd.Context(), code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	if token.RefreshToken == "" {
		return fmt.Errorf("Google returned no refresh token; revoke the app's access and retry")
	}

	fmt.Println()
	fmt.Println("Refresh token:", token.RefreshToken)

	if !write {
		fmt.Println("Re-run with --write to store it in", cfg.Secrets.Path)
		return nil
	}

	stored["client_id"] = clientID
	stored["client_secret"] = clientSecret
	stored["refresh_token"] = token.RefreshToken
	if _, ok := stored["calendar_id"]; !ok {
		stored["calendar_id"] = "primary"
	}
	if err := writeSecretsFile(cfg.Secrets.Path, stored); err != nil {
		return err
	}
	fmt.Println("Secrets updated at", cfg.Secrets.Path)
	return nil
}

// readSecretsFile loads the secrets file as a generic map so unknown keys
// survive a rewrite. A missing file yields an empty map.
func readSecretsFile(path string) (map[string]any, error) {
	obj := make(map[string]any)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return obj, nil
		}
		return obj, err
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return make(map[string]any), err
	}
	return obj, nil
}

func writeSecretsFile(path string, obj map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create secrets directory: %w", err)
	}
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}
	return nil
}
