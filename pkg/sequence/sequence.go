package sequence

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atelierhq/atelier-backend/pkg/db/models"
)

// Families of generated document codes.
const (
	FamilyOrder    = "ORDER"
	FamilyWorkshop = "WS"
	FamilyDelivery = "DLV"
	FamilyInvoice  = "INV"
)

const codeWidth = 5

// Next issues the next code for the family inside the supplied transaction.
// The counter row is locked so two concurrent issuers never produce the same
// code; the caller's transaction boundaries decide when the number is burned.
func Next(tx *gorm.DB, family string) (string, error) {
	if family == "" {
		return "", fmt.Errorf("sequence family is required")
	}

	query := tx
	if tx.Dialector.Name() == "postgres" {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var counter models.CodeCounter
	if err := query.
		Where(models.CodeCounter{Name: family}).
		FirstOrCreate(&counter).Error; err != nil {
		return "", fmt.Errorf("loading counter %s: %w", family, err)
	}

	counter.Value++
	if err := tx.Model(&models.CodeCounter{}).
		Where("name = ?", family).
		Update("value", counter.Value).Error; err != nil {
		return "", fmt.Errorf("advancing counter %s: %w", family, err)
	}

	return fmt.Sprintf("%s-%0*d", family, codeWidth, counter.Value), nil
}
