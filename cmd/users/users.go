package users

import "github.com/spf13/cobra"

// UsersCmd is the parent command for account management operations
var UsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage library accounts",
	Long:  `Commands for managing library accounts directly against the database.`,
}

func init() {
	createCmd.Flags().StringVar(&usernameFlag, "username", "", "Login name of the account (required)")
	createCmd.Flags().StringVar(&passwordFlag, "password", "", "Password for the account (use --stdin to avoid shell history)")
	createCmd.Flags().StringVar(&fullNameFlag, "full-name", "", "Full name of the person (required)")
	createCmd.Flags().IntVar(&yearFlag, "year", 0, "Year of birth")
	createCmd.Flags().BoolVar(&adminFlag, "admin", false, "Grant ROLE_ADMIN in addition to ROLE_USER")
	createCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read password from stdin instead of --password flag")

	UsersCmd.AddCommand(createCmd)
}
