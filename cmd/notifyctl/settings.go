package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View and update runtime settings (admin)",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newClient(apiURL, apiToken).GetSettings(cmd.Context())
		if err != nil {
			return err
		}
		return printOutput(s)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set key=value [key=value...]",
	Short: "Override settings",
	Long: `Set sends a partial update. Keys are the JSON names shown by "settings get",
for example ops_recipients=ops@b8shield.com,lager@b8shield.com.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseAssignments(args)
		if err != nil {
			return err
		}
		if err := newClient(apiURL, apiToken).PutSettings(cmd.Context(), values); err != nil {
			return err
		}
		fmt.Printf("Updated %d setting(s)\n", len(values))
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
}

func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected key=value, got %q", a)
		}
		out[k] = v
	}
	return out, nil
}
