package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/iho/gofinance/internal/adapter/http/dto"
	"github.com/iho/gofinance/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/gofinance/internal/adapter/repository/postgres"
	"github.com/iho/gofinance/internal/infrastructure/config"
	"github.com/iho/gofinance/internal/infrastructure/postgres"
	"github.com/iho/gofinance/internal/usecase"
)

type options struct {
	baseURL string
	token   string
	timeout time.Duration
	plain   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "finance",
		Short:         "Finance CLI tool",
		Long:          `A command line interface for the stock trading simulator.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("FINANCE_URL", "http://localhost:8080"), "Base URL of the finance server")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("FINANCE_TOKEN"), "Session token (defaults to $FINANCE_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&opts.plain, "plain", false, "Print raw markdown instead of styled output")

	rootCmd.AddCommand(
		newRegisterCmd(opts),
		newLoginCmd(opts),
		newQuoteCmd(opts),
		newTradeCmd(opts, "buy", "Buy shares at the current price"),
		newTradeCmd(opts, "sell", "Sell shares at the current price"),
		newPortfolioCmd(opts),
		newHistoryCmd(opts),
		newReconcileCmd(opts),
		newMigrateCmd(),
	)

	return rootCmd
}

func (o *options) client() *apiClient {
	return newAPIClient(o.baseURL, o.token, o.timeout)
}

func newRegisterCmd(opts *options) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register USERNAME",
		Short: "Create an account and print its session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var session dto.SessionResponse
			err := opts.client().post(cmd.Context(), "/register", url.Values{
				"username":     {args[0]},
				"password":     {password},
				"confirmation": {password},
			}, nil, &session)
			if err != nil {
				return err
			}

			return printSession(cmd, session)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password for the new account")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newLoginCmd(opts *options) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login USERNAME",
		Short: "Log in and print a session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var session dto.SessionResponse
			err := opts.client().post(cmd.Context(), "/login", url.Values{
				"username": {args[0]},
				"password": {password},
			}, nil, &session)
			if err != nil {
				return err
			}

			return printSession(cmd, session)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func printSession(cmd *cobra.Command, session dto.SessionResponse) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Logged in as %s (cash %s), session valid until %s.\n",
		session.User.Username, dto.USD(session.User.Cash), session.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(out, "export FINANCE_TOKEN=%s\n", session.Token)
	return nil
}

func newQuoteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "quote SYMBOL",
		Short: "Look up the current price of a stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var q dto.QuoteResponse
			if err := opts.client().post(cmd.Context(), "/quote", url.Values{"symbol": {args[0]}}, nil, &q); err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), quoteMarkdown(q), opts.plain)
		},
	}
}

func newTradeCmd(opts *options, side, short string) *cobra.Command {
	var idempotencyKey string

	cmd := &cobra.Command{
		Use:   side + " SYMBOL SHARES",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.ParseInt(args[1], 10, 64); err != nil {
				return fmt.Errorf("shares must be a whole number, got %q", args[1])
			}

			key := idempotencyKey
			if key == "" {
				key = uuid.NewString()
			}

			var txn dto.TransactionResponse
			err := opts.client().post(cmd.Context(), "/"+side,
				url.Values{"symbol": {args[0]}, "shares": {args[1]}},
				map[string]string{middleware.IdempotencyKeyHeader: key},
				&txn,
			)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), tradeMarkdown(txn), opts.plain)
		},
	}

	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Key that makes retries of this trade safe (random by default)")

	return cmd
}

func newPortfolioCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Show holdings valued at current prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var snapshot dto.SnapshotResponse
			if err := opts.client().get(cmd.Context(), "/", &snapshot); err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), portfolioMarkdown(snapshot), opts.plain)
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List every trade in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []dto.TransactionResponse
			if err := opts.client().get(cmd.Context(), "/history", &entries); err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), historyMarkdown(entries), opts.plain)
		},
	}
}

func newReconcileCmd(opts *options) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check that cash agrees with the trade ledger",
		Long: `Without --all, checks the logged-in user through the server.
With --all, connects to the database named by DATABASE_URL and checks every user.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all {
				var result dto.ReconciliationResponse
				if err := opts.client().get(cmd.Context(), "/reconcile", &result); err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), reconcileMarkdown([]dto.ReconciliationResponse{result}), opts.plain)
			}

			results, err := reconcileAll(cmd.Context())
			if err != nil {
				return err
			}

			mismatches := usecase.Mismatches(results)
			responses := make([]dto.ReconciliationResponse, len(mismatches))
			for i, r := range mismatches {
				responses[i] = dto.ReconciliationFromResult(r)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Checked %d users, %d out of balance.\n", len(results), len(mismatches))
			if len(mismatches) == 0 {
				return nil
			}
			if err := render(cmd.OutOrStdout(), reconcileMarkdown(responses), opts.plain); err != nil {
				return err
			}
			return fmt.Errorf("%d users out of balance", len(mismatches))
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Check every user directly against the database")

	return cmd
}

func reconcileAll(ctx context.Context) ([]*usecase.ReconciliationResult, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       1,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	uc := usecase.NewReconciliationUseCase(
		postgresRepo.NewTxManager(pool),
		postgresRepo.NewUserRepository(pool),
		postgresRepo.NewTransactionRepository(pool),
		cfg.InitialCash,
	)

	return uc.ReconcileAll(ctx)
}

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				return postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				return postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				version, dirty, err := postgres.MigrationVersion(cfg.DatabaseURL, cfg.MigrationsPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			},
		},
	)

	return migrateCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
