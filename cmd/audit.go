package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medcp/medcp/internal/audit"
)

var (
	auditDBPath string
	auditLimit  int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent tool invocations from the audit trail",
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditDBPath, "audit-db", "", "Path to the invocation audit database")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "Max entries to show")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	path := auditDBPath
	if path == "" {
		path = os.Getenv("MEDCP_AUDIT_DB")
	}
	if path == "" {
		return errors.New("no audit database configured (use --audit-db or MEDCP_AUDIT_DB)")
	}

	store, err := audit.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(auditLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No invocations recorded.")
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-26s %-8s %4dms",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Tool, e.Verdict, e.Duration.Milliseconds())
		if e.Reason != "" {
			line += "  (" + e.Reason + ")"
		}
		if q := truncateQuery(e.Query); q != "" {
			line += "  " + q
		}
		fmt.Println(line)
	}
	return nil
}

func truncateQuery(query string) string {
	q := strings.Join(strings.Fields(query), " ")
	if len(q) > 80 {
		q = q[:80] + "..."
	}
	return q
}
