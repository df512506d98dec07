package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sekolahku/sps/core/billing"
)

// seedFees installs fee schedule entries for the given categories. Amounts
// are decimal strings; an empty amount skips its category.
func (cli *commandLine) seedFees(spp, infaq, kas string) error {
	entries := []struct {
		category billing.BillCategory
		name     string
		amount   string
	}{
		{billing.CategorySPP, "SPP Bulanan", spp},
		{billing.CategoryINFAQ, "Infaq Bulanan", infaq},
		{billing.CategoryKAS, "Kas Kelas Bulanan", kas},
	}

	for _, e := range entries {
		if e.amount == "" {
			continue
		}
		amount, err := decimal.NewFromString(e.amount)
		if err != nil {
			return fmt.Errorf("parsing %s amount: %w", e.category, err)
		}
		bt, err := cli.billingRepo.CreateBillType(billing.BillType{
			ID:        uuid.NewString(),
			Name:      e.name,
			Category:  e.category,
			Amount:    amount,
			Period:    billing.PeriodMonthly,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		logger.Printf("installed %s fee %s (%s)\n", bt.Category, bt.Amount, bt.ID)
	}
	return nil
}
