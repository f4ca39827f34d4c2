// Command dine-users manages staff accounts and seeds demo data.
//
//	dine-users create-admin   -name NAME -email EMAIL -password PASSWORD
//	dine-users create-waiter  -name NAME -email EMAIL -password PASSWORD
//	dine-users reset-password -email EMAIL -password PASSWORD
//	dine-users seed-demo      [-password PASSWORD] [-days N]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"dineadmin/internal/cli"
	"dineadmin/internal/config"
	"dineadmin/internal/core"
	"dineadmin/internal/log"
	"dineadmin/internal/services"
)

const usage = `usage: dine-users <command> [flags]

commands:
  create-admin    create an admin account
  create-waiter   create a waiter account
  reset-password  replace the password of an account
  seed-demo       create demo waiters, tables, menu items and paid orders
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(log.Default())
	logger := cli.SetupLogger(cfg.LogLevel)
	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Memory backend selected, changes are lost when dine-users exits")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	backend := cli.OpenBackend(ctx, logger, cfg, nil)
	defer backend.Cleanup()

	staff := services.NewStaffService(backend.Store, logger)
	if err := run(ctx, os.Args[1], os.Args[2:], staff, &demoSeeder{store: backend.Store, staff: staff, loc: cfg.Location()}); err != nil {
		logger.Error("Command failed", "command", os.Args[1], log.FieldError, err)
		backend.Cleanup()
		os.Exit(1)
	}
}

// run dispatches one subcommand.
func run(ctx context.Context, cmd string, args []string, staff *services.StaffService, seeder *demoSeeder) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "login email")
	password := fs.String("password", "", "password (min 6 characters)")
	days := fs.Int("days", 7, "days of demo orders to generate")

	switch cmd {
	case "create-admin", "create-waiter", "reset-password", "seed-demo":
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch cmd {
	case "create-admin":
		id, err := staff.CreateStaff(ctx, *name, *email, *password, core.RoleAdmin)
		if err != nil {
			return err
		}
		fmt.Printf("created admin %s (%s)\n", *email, id)
	case "create-waiter":
		id, err := staff.CreateWaiter(ctx, *name, *email, *password)
		if err != nil {
			return err
		}
		fmt.Printf("created waiter %s (%s)\n", *email, id)
	case "reset-password":
		if err := staff.ResetPassword(ctx, *email, *password); err != nil {
			return err
		}
		fmt.Printf("password reset for %s\n", *email)
	case "seed-demo":
		pw := *password
		if pw == "" {
			pw = defaultDemoPassword
		}
		sum, err := seeder.Seed(ctx, pw, *days, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("seeded %d waiters, %d tables, %d menu items, %d orders\n",
			sum.Waiters, sum.Tables, sum.MenuItems, sum.Orders)
	}
	return nil
}
