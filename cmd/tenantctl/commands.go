package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/bootstrap"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/configs"
	database "github.com/shahid-afrid/tutorlivework-sub001/internals/databases"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/dto"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/provisioner"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/logger"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/middlewares/auth"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/seeds"
)

var (
	fixMismatches bool
	tokenRole     string
	tokenDept     string
	tokenName     string
	tokenTTL      time.Duration
)

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tenantctl",
		Short:         "Provision and repair department tenants",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configs.LoadEnv()
		},
	}
	root.AddCommand(
		newNormalizeCommand(),
		newCreateTablesCommand(),
		newOnboardCommand(),
		newGrantCommand(),
		newMismatchesCommand(),
		newMigrateCommand(),
		newSeedCommand(),
		newTokenCommand(),
	)
	return root
}

// withServices connects, runs fn and closes the pool.
func withServices(cmd *cobra.Command, fn func(ctx context.Context, s *bootstrap.Services) error) error {
	log := logger.New(configs.AppEnv, configs.LogLevel)
	defer func() { _ = log.Sync() }()

	db, err := database.ConnectDB(configs.DatabaseDSN(), log)
	if err != nil {
		return err
	}
	defer database.Close(db)
	return fn(cmd.Context(), bootstrap.Build(db, log, configs.DDLTimeout))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseUUIDArg(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a UUID: %w", name, err)
	}
	return id, nil
}

func newNormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize RAW...",
		Short: "Print the canonical tenant key for each department spelling",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, raw := range args {
				key := normalizer.Normalize(raw)
				fmt.Fprintf(out, "%q\t%s\trecognized=%t\tprovisionable=%t\n",
					raw, key, normalizer.IsRecognized(key), normalizer.IsProvisionable(key))
			}
			return nil
		},
	}
}

func newCreateTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create-tables KEY",
		Short: "Create the five physical tables of one tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, s *bootstrap.Services) error {
				res := s.Provisioner.CreateTenantTables(ctx, args[0])
				if err := printJSON(cmd.OutOrStdout(), dto.ToTablesResponse(res)); err != nil {
					return err
				}
				switch res.Status {
				case provisioner.StatusCreated, provisioner.StatusAlreadyExists:
					return nil
				default:
					return fmt.Errorf("create tables: %s", res.Message)
				}
			})
		},
	}
}

func newOnboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "onboard DEPARTMENT_ID",
		Short: "Run the onboarding saga for a department; safe to re-run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUIDArg("DEPARTMENT_ID", args[0])
			if err != nil {
				return err
			}
			return withServices(cmd, func(ctx context.Context, s *bootstrap.Services) error {
				rep := s.Onboarder.Onboard(ctx, id)
				if err := printJSON(cmd.OutOrStdout(), rep); err != nil {
					return err
				}
				if !rep.OK() {
					return fmt.Errorf("onboarding stopped at %s: %w", rep.FailedStep, rep.Err)
				}
				return nil
			})
		},
	}
}

func newGrantCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "grant ADMIN_ID DEPARTMENT_ID",
		Short: "Give an admin every capability on a department",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			adminID, err := parseUUIDArg("ADMIN_ID", args[0])
			if err != nil {
				return err
			}
			deptID, err := parseUUIDArg("DEPARTMENT_ID", args[1])
			if err != nil {
				return err
			}
			return withServices(cmd, func(ctx context.Context, s *bootstrap.Services) error {
				if !s.Onboarder.GrantAdminAccess(ctx, adminID, deptID) {
					return fmt.Errorf("grant failed, see log")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "granted")
				return nil
			})
		},
	}
}

func newMismatchesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mismatches",
		Short: "Count (or with --fix, rewrite) non-canonical department values in shared tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, s *bootstrap.Services) error {
				var (
					counts map[string]int64
					err    error
				)
				if fixMismatches {
					counts, err = s.Reconciler.FixMismatches(ctx)
				} else {
					counts, err = s.Reconciler.FindMismatches(ctx)
				}
				printCounts(cmd.OutOrStdout(), counts)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&fixMismatches, "fix", false, "Rewrite mismatched values to their canonical key.")
	return cmd
}

func printCounts(w io.Writer, counts map[string]int64) {
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "%-20s %d\n", k, counts[k])
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "AutoMigrate the shared metadata tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, s *bootstrap.Services) error {
				if err := database.Migrate(ctx, s.DB, s.Log); err != nil {
					s.Log.Error("migrate failed", zap.Error(err))
					return err
				}
				return nil
			})
		},
	}
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [FILE]",
		Short: "Create (and optionally onboard) departments listed in a JSON seed file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := seeds.DefaultDepartmentsFile
			if len(args) == 1 {
				file = args[0]
			}
			return withServices(cmd, func(ctx context.Context, s *bootstrap.Services) error {
				return seeds.RunAllSeeds(ctx, s.Onboarder, file, s.Log)
			})
		},
	}
}

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token USER_ID",
		Short: "Sign an admin API token with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if configs.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			if tokenRole == auth.RoleAdmin && normalizer.Normalize(tokenDept) == "" {
				return fmt.Errorf("--department is required for role %s", auth.RoleAdmin)
			}
			tok, err := auth.IssueToken(configs.JWTSecret, auth.TokenClaims{
				UserID:     args[0],
				UserName:   tokenName,
				Role:       tokenRole,
				Department: tokenDept,
			}, tokenTTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&tokenRole, "role", auth.RoleAdmin, "Token role: admin or super_admin.")
	cmd.Flags().StringVar(&tokenDept, "department", "", "Department the admin token is scoped to.")
	cmd.Flags().StringVar(&tokenName, "name", "", "User name recorded as the audit actor.")
	cmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "Token lifetime.")
	return cmd
}
