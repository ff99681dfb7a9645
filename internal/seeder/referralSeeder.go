package seeders

import (
	"context"
	"database/sql"
	"log"
)

// seedReferralCodes seeds a handful of agent referral codes for development.
func (seeder *Seeder) seedReferralCodes() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	tx, err := seeder.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		log.Fatalf("Failed to start transaction: %v", err)
	}

	codes := []struct {
		Code      string
		AgentName string
	}{
		{Code: "THABO#7F2K1", AgentName: "Thabo Nkosi"},
		{Code: "LERATO#9Q4M8", AgentName: "Lerato Dlamini"},
		{Code: "SIPHO#2B6T3", AgentName: "Sipho Mthembu"},
	}

	for _, code := range codes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO referral_codes (code, agent_name)
			VALUES ($1, $2)
			ON CONFLICT (code) DO NOTHING;`,
			code.Code, code.AgentName,
		)
		if err != nil {
			tx.Rollback()
			log.Fatalf("Failed to insert referral code '%s': %v", code.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit referral code seed: %v", err)
	}

	log.Println("Referral codes seeded successfully")
}
