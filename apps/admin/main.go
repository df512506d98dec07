package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/sekolahku/sps/core"
	"github.com/sekolahku/sps/storage/database"
	sqlxrepos "github.com/sekolahku/sps/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	sdb, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = sdb.Close() }()
	errAndDie(sdb.Ping())
	db := sqlx.NewDb(sdb, conf.Database.Engine)

	// start CLI
	cli := commandLine{
		db:          db,
		conf:        conf,
		billingRepo: sqlxrepos.NewBillingRepository(db),
		studentRepo: sqlxrepos.NewStudentRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
