// Command memberhubctl runs operational tasks against the MemberHub
// database: verifying account identity integrity and executing the legacy
// account migrations. It connects with the same MEMBERHUB_MONGO_URI and
// MEMBERHUB_MONGO_DATABASE settings as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/eurofed/memberhub/internal/app/migration"
	accountstore "github.com/eurofed/memberhub/internal/app/store/accounts"
	auditstore "github.com/eurofed/memberhub/internal/app/store/audit"
	crossrefstore "github.com/eurofed/memberhub/internal/app/store/crossrefs"
	legacystore "github.com/eurofed/memberhub/internal/app/store/legacy"
	memberstore "github.com/eurofed/memberhub/internal/app/store/members"
	"github.com/eurofed/memberhub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var code int
	switch os.Args[1] {
	case "verify":
		code = runVerify(os.Args[2:], logger)
	case "migrate-legacy":
		code = runMigrateLegacy(os.Args[2:], logger)
	case "migrate-unified":
		code = runMigrateUnified(os.Args[2:], logger)
	default:
		usage()
		code = 2
	}
	os.Exit(code)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: memberhubctl <command> [flags]

commands:
  verify           audit account identity integrity (read-only)
  migrate-legacy   convert company_-prefixed accounts to canonical IDs
  migrate-unified  group flat legacy users into accounts with members`)
}

func connect(ctx context.Context) (*mongo.Client, *mongo.Database, error) {
	uri := os.Getenv("MEMBERHUB_MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	name := os.Getenv("MEMBERHUB_MONGO_DATABASE")
	if name == "" {
		name = "member_hub"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongodb ping: %w", err)
	}
	return client, client.Database(name), nil
}

// cliActor identifies the operator in audit events written by this tool.
// There is no signed-in session on the command line, so the OS user has to do.
func cliActor() string {
	if u := os.Getenv("USER"); u != "" {
		return "cli:" + u
	}
	return "cli"
}

func newAudit(db *mongo.Database, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(auditstore.New(db), logger, auditlog.Config{Migration: "all"})
}

func runVerify(args []string, logger *zap.Logger) int {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	csvPath := fs.String("csv", "", "write the full report as CSV to this file ('-' for stdout)")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	client, db, err := connect(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer client.Disconnect(ctx)

	verifier := migration.NewVerifier(accountstore.New(db), memberstore.New(db), crossrefstore.New(db), logger)
	report, err := verifier.Run(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "verification failed:", err)
		return 1
	}
	newAudit(db, logger).VerificationRun(ctx, nil, cliActor(), "",
		len(report.Verified), len(report.Mismatches), len(report.Errors))

	fmt.Printf("accounts: %d  verified: %d  mismatches: %d  errors: %d\n",
		report.TotalAccounts, len(report.Verified), len(report.Mismatches), len(report.Errors))

	if *csvPath != "" {
		out := os.Stdout
		if *csvPath != "-" {
			f, err := os.Create(*csvPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, "creating csv file:", err)
				return 1
			}
			defer f.Close()
			out = f
		}
		if err := report.WriteCSV(out); err != nil {
			fmt.Fprintln(os.Stderr, "writing csv:", err)
			return 1
		}
	}

	if !report.Clean() {
		return 1
	}
	return 0
}

func runMigrateLegacy(args []string, logger *zap.Logger) int {
	fs := flag.NewFlagSet("migrate-legacy", flag.ExitOnError)
	execute := fs.Bool("execute", false, "apply the migration instead of printing the plan")
	confirm := fs.String("confirm", "", "confirmation phrase required with -execute")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	client, db, err := connect(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer client.Disconnect(ctx)

	engine := migration.NewEngine(client,
		accountstore.New(db), memberstore.New(db), crossrefstore.New(db), logger)

	if !*execute {
		plan, err := engine.Plan(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "planning failed:", err)
			return 1
		}
		fmt.Printf("%d corporate account(s) to migrate\n", len(plan))
		for _, row := range plan {
			marker := "ok"
			if !row.IsValid {
				marker = "INVALID"
			}
			fmt.Printf("  %-8s %s -> %s  %q  (%d members)\n",
				marker, row.OldID, row.NewID, row.OrganizationName, row.MemberCount)
		}
		fmt.Printf("\nto apply: memberhubctl migrate-legacy -execute -confirm %q\n", migration.ConfirmPhrase)
		return 0
	}

	result, err := engine.Execute(ctx, *confirm)
	if err != nil {
		fmt.Fprintln(os.Stderr, "migration failed:", err)
		return 1
	}
	newAudit(db, logger).MigrationExecuted(ctx, nil, cliActor(), result.RunID,
		result.SuccessfulMigrations, result.FailedMigrations)

	fmt.Printf("run %s: %d account(s), %d migrated, %d failed\n",
		result.RunID, result.TotalAccounts, result.SuccessfulMigrations, result.FailedMigrations)
	for _, e := range result.Errors {
		fmt.Println("  error:", e)
	}
	if result.FailedMigrations > 0 {
		return 1
	}
	return 0
}

func runMigrateUnified(args []string, logger *zap.Logger) int {
	fs := flag.NewFlagSet("migrate-unified", flag.ExitOnError)
	execute := fs.Bool("execute", false, "required; this migration has no dry-run mode")
	fs.Parse(args)

	if !*execute {
		fmt.Fprintln(os.Stderr, "migrate-unified rewrites legacy user records; pass -execute to run it")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	client, db, err := connect(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer client.Disconnect(ctx)

	unifier := migration.NewUnifier(client,
		legacystore.New(db), accountstore.New(db), memberstore.New(db), logger)

	result, err := unifier.Run(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "migration failed:", err)
		return 1
	}
	newAudit(db, logger).UnifiedMigrationExecuted(ctx, nil, cliActor(), result.RunID,
		result.CorporateAccounts, result.IndividualAccounts, result.Failed)

	fmt.Printf("run %s: %d user(s), %d corporate account(s), %d individual account(s), %d failed\n",
		result.RunID, result.TotalUsers, result.CorporateAccounts, result.IndividualAccounts, result.Failed)
	for _, e := range result.Errors {
		fmt.Println("  error:", e)
	}
	if result.Failed > 0 {
		return 1
	}
	return 0
}
