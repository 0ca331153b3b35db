package repositories

import (
	"fmt"

	"crewpay/internal/models"

	"gorm.io/gorm"
)

const ledgerImmutableMessage = "ledger_entries is append-only"

// Migrate creates the schema and the storage-level guards the services
// rely on.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Job{},
		&models.PMRequest{},
		&models.PMLineItem{},
		&models.PMReceipt{},
		&models.PMRequestAudit{},
		&models.DisputeCase{},
		&models.DisputeVote{},
		&models.LedgerEntry{},
		&models.TransferRecord{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	for _, stmt := range guardStatements() {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to apply schema guard: %w", err)
		}
	}
	return nil
}

func guardStatements() []string {
	return []string{
		`CREATE OR REPLACE FUNCTION ledger_entries_reject_mutation() RETURNS trigger AS $$
BEGIN
	RAISE EXCEPTION '` + ledgerImmutableMessage + `';
END;
$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS ledger_entries_append_only ON ledger_entries`,
		`CREATE TRIGGER ledger_entries_append_only
	BEFORE UPDATE OR DELETE ON ledger_entries
	FOR EACH ROW EXECUTE FUNCTION ledger_entries_reject_mutation()`,
		`DROP TRIGGER IF EXISTS ledger_entries_no_truncate ON ledger_entries`,
		`CREATE TRIGGER ledger_entries_no_truncate
	BEFORE TRUNCATE ON ledger_entries
	FOR EACH STATEMENT EXECUTE FUNCTION ledger_entries_reject_mutation()`,
		`CREATE UNIQUE INDEX IF NOT EXISTS dispute_votes_one_active_ai
	ON dispute_votes (dispute_id)
	WHERE voter_type = '` + models.VoterTypeAIAdvisory + `' AND status = '` + models.VoteStatusActive + `'`,
		`ALTER TABLE pm_line_items DROP CONSTRAINT IF EXISTS pm_line_items_quantity_positive`,
		`ALTER TABLE pm_line_items ADD CONSTRAINT pm_line_items_quantity_positive CHECK (quantity > 0 AND unit_price_cents >= 0)`,
		`ALTER TABLE ledger_entries DROP CONSTRAINT IF EXISTS ledger_entries_amount_positive`,
		`ALTER TABLE ledger_entries ADD CONSTRAINT ledger_entries_amount_positive CHECK (amount_cents > 0)`,
	}
}
