package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codewithboateng/jclgraph/internal/security"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage API users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an API user; the password is read from stdin",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserAdd,
}

func init() {
	userAddCmd.Flags().String("role", "viewer", "user role (viewer|admin)")
	userCmd.AddCommand(userAddCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	cfg, _, closeLog, err := setup(cmd, "")
	if err != nil {
		return err
	}
	defer closeLog()

	role, _ := cmd.Flags().GetString("role")
	role = strings.ToLower(strings.TrimSpace(role))
	if role != "viewer" && role != "admin" {
		return fmt.Errorf("user add: unknown role %q", role)
	}

	pw, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && pw == "" {
		return fmt.Errorf("user add: read password: %w", err)
	}
	pw = strings.TrimRight(pw, "\r\n")
	if pw == "" {
		return fmt.Errorf("user add: empty password")
	}
	hash, err := security.HashPassword(pw)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	id, err := db.CreateUser(args[0], hash, role)
	if err != nil {
		return fmt.Errorf("user add: %w", err)
	}

	w := cmd.OutOrStdout()
	okColor.Fprintln(w, "User created")
	printKV(w, "ID", id)
	printKV(w, "Username", args[0])
	printKV(w, "Role", role)
	return nil
}
