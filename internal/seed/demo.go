package seed

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/sandforce/sandforce/internal/store"
)

var demoStages = []string{"Prospecting", "Qualification", "Needs Analysis", "Proposal/Price Quote", "Negotiation/Review"}

var demoIndustries = []string{"Agriculture", "Banking", "Biotechnology", "Energy", "Technology", "Retail", "Transportation"}

// Demo populates the org with n fake accounts, each with a couple of
// contacts and an opportunity, for kicking the tires on a fresh sandbox.
// Records go through the record store so they get real IDs and validation.
func Demo(ctx context.Context, db *sql.DB, n int) error {
	if n <= 0 {
		return nil
	}

	records := store.NewSQLiteRecordStore(db)

	for i := 0; i < n; i++ {
		account, err := records.Insert(ctx, "Account", map[string]string{
			"Name":           gofakeit.Company(),
			"Industry":       gofakeit.RandomString(demoIndustries),
			"Phone":          gofakeit.Phone(),
			"Website":        gofakeit.URL(),
			"BillingCity":    gofakeit.City(),
			"BillingCountry": gofakeit.Country(),
		})
		if err != nil {
			return fmt.Errorf("insert demo account: %w", err)
		}

		for range gofakeit.Number(1, 3) {
			if _, err := records.Insert(ctx, "Contact", map[string]string{
				"FirstName": gofakeit.FirstName(),
				"LastName":  gofakeit.LastName(),
				"Email":     gofakeit.Email(),
				"Phone":     gofakeit.Phone(),
				"Title":     gofakeit.JobTitle(),
				"AccountId": account.ID,
			}); err != nil {
				return fmt.Errorf("insert demo contact: %w", err)
			}
		}

		closeDate := time.Now().AddDate(0, gofakeit.Number(1, 6), 0).Format("2006-01-02")
		if _, err := records.Insert(ctx, "Opportunity", map[string]string{
			"Name":      account.Fields["Name"] + " - " + gofakeit.ProductName(),
			"StageName": gofakeit.RandomString(demoStages),
			"CloseDate": closeDate,
			"Amount":    strconv.Itoa(gofakeit.Number(5, 500) * 1000),
			"AccountId": account.ID,
		}); err != nil {
			return fmt.Errorf("insert demo opportunity: %w", err)
		}
	}

	return nil
}
