package users

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/config"
	"github.com/vcubone/library-boot/internal/db/bunx"
	"github.com/vcubone/library-boot/internal/db/models"
	"github.com/vcubone/library-boot/internal/repository"
	"github.com/vcubone/library-boot/internal/services/people"
)

var (
	usernameFlag string
	passwordFlag string
	fullNameFlag string
	yearFlag     int
	adminFlag    bool
	stdinFlag    bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a library account",
	Long: `Registers an account with ROLE_USER, the same way the registration endpoints do.
--admin additionally grants ROLE_ADMIN, which is how the first administrator is bootstrapped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if usernameFlag == "" {
			return fmt.Errorf("--username flag is required")
		}
		if fullNameFlag == "" {
			return fmt.Errorf("--full-name flag is required")
		}

		password := passwordFlag
		if stdinFlag {
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Print("Enter password: ")
			if scanner.Scan() {
				password = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}
		if password == "" {
			return fmt.Errorf("password is required (use --password or --stdin)")
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := bunx.NewDB(cfg.DatabaseURL, bunx.Options{MaxOpenConns: cfg.MaxDBConnections, Debug: cfg.Debug})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		ctx := cmd.Context()
		svc := people.NewService(
			repository.NewBunPersonRepository(db),
			repository.NewBunRoleRepository(db),
			auth.NewBcryptHasher(cfg.BcryptCost),
		)

		person, err := svc.Register(ctx, people.RegisterInput{
			Username:    usernameFlag,
			Password:    password,
			FullName:    fullNameFlag,
			YearOfBirth: yearFlag,
		})
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}

		roles := []string{models.RoleUser}
		if adminFlag {
			if _, err := svc.AddRole(ctx, person.ID, models.RoleAdmin); err != nil {
				return fmt.Errorf("failed to grant %s: %w", models.RoleAdmin, err)
			}
			roles = append(roles, models.RoleAdmin)
		}

		fmt.Println("Account created successfully!")
		fmt.Println("----------------------------------------")
		fmt.Printf("Person ID: %d\n", person.ID)
		fmt.Printf("Username: %s\n", person.Username)
		fmt.Printf("Full name: %s\n", person.FullName)
		fmt.Printf("Roles: %s\n", strings.Join(roles, ", "))
		fmt.Println("----------------------------------------")
		return nil
	},
}
