package entity

import (
	"context"
	"time"

	"autobill/internal/core/apperror"
	"autobill/internal/core/id"
)

// Document is the base type for numbered business documents such as invoices.
type Document struct {
	BaseDocument

	// Number is the human-readable document number, assigned once.
	Number string `db:"number" json:"number"`

	// NumberSeq is the integer counter embedded in Number.
	// Ordering must use this field, never string comparison of Number.
	NumberSeq int64 `db:"number_seq" json:"numberSeq"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`
}

// NewDocument creates a new Document with generated ID dated now.
func NewDocument() Document {
	return Document{
		BaseDocument: newBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// AssignNumber stores the allocated number. A document keeps its first number forever.
func (d *Document) AssignNumber(number string, seq int64) error {
	if d.Number != "" {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "document number is immutable").
			WithDetail("number", d.Number)
	}
	d.Number = number
	d.NumberSeq = seq
	return nil
}

// GetID returns the document ID.
func (d *Document) GetID() id.ID {
	return d.ID
}
