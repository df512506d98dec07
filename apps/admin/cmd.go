package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sekolahku/sps/core"
	sqlxrepos "github.com/sekolahku/sps/storage/database/sqlx"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db          *sqlx.DB
	conf        *core.Config
	billingRepo *sqlxrepos.BillingRepository
	studentRepo *sqlxrepos.StudentRepository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate up|up-by-one|down|redo|status|version - run DB migrations")
	fmt.Println("  seedfees -spp AMOUNT -infaq AMOUNT -kas AMOUNT - install the fee schedule")
	fmt.Println("  admintoken -email EMAIL - mint an admin portal token")
	fmt.Println("  parenttoken -student STUDENT_ID - mint a parent portal token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	seedFeesCmd := flag.NewFlagSet("seedfees", flag.ExitOnError)
	seedFeesSpp := seedFeesCmd.String("spp", "", "The monthly SPP fee amount.")
	seedFeesInfaq := seedFeesCmd.String("infaq", "", "The monthly INFAQ fee amount.")
	seedFeesKas := seedFeesCmd.String("kas", "", "The monthly KAS fee amount.")

	adminTokenCmd := flag.NewFlagSet("admintoken", flag.ExitOnError)
	adminTokenEmail := adminTokenCmd.String("email", "", "The operator's email.")

	parentTokenCmd := flag.NewFlagSet("parenttoken", flag.ExitOnError)
	parentTokenStudent := parentTokenCmd.String("student", "", "The student's ID.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seedfees":
		if err := seedFeesCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedFeesSpp == "" && *seedFeesInfaq == "" && *seedFeesKas == "" {
			seedFeesCmd.Usage()
			return errHelp
		}
		return cli.seedFees(*seedFeesSpp, *seedFeesInfaq, *seedFeesKas)
	case "admintoken":
		if err := adminTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *adminTokenEmail == "" {
			adminTokenCmd.Usage()
			return errHelp
		}
		return cli.adminToken(*adminTokenEmail)
	case "parenttoken":
		if err := parentTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *parentTokenStudent == "" {
			parentTokenCmd.Usage()
			return errHelp
		}
		return cli.parentToken(*parentTokenStudent)
	default:
		cli.printUsage()
		return errHelp
	}
}
