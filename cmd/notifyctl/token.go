package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	amw "github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/auth/middleware"
)

var tokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Mint a bearer token for local testing",
	Long: `Token signs an HS256 token with the service's JWT_SIGNING_KEY. The key is
read from --key, the signing_key config value or NOTIFY_SIGNING_KEY.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		if key == "" {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			key = c.SigningKey
		}
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("no signing key: pass --key or set signing_key")
		}
		roles, _ := cmd.Flags().GetStringSlice("roles")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		tok, err := amw.Sign(key, args[0], roles, ttl)
		if err != nil {
			return err
		}
		if outputFmt == "json" {
			return printOutput(map[string]any{
				"token":     tok,
				"subject":   args[0],
				"roles":     roles,
				"expiresAt": time.Now().Add(ttl).UTC().Format(time.RFC3339),
			})
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	f := tokenCmd.Flags()
	f.String("key", "", "HS256 signing key")
	f.StringSlice("roles", nil, "roles claim, e.g. --roles admin")
	f.Duration("ttl", 15*time.Minute, "token lifetime")
}
