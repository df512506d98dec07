package student

import "time"

// Status of a student within the enrollment flow. The registration
// collaborator owns most transitions; billing only flips PENDING_PAYMENT to
// REGISTERED when the legacy registration invoice settles.
type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusRegistered     Status = "REGISTERED"
	StatusActive         Status = "ACTIVE"
	StatusGraduated      Status = "GRADUATED"
)

// Student is the billing profile of an enrolled student. Registration and
// identity issuance happen elsewhere; this service reads the profile and
// patches only the legacy payment fields.
type Student struct {
	ID          string `json:"id" db:"id"`
	FullName    string `json:"full_name" db:"full_name"`
	NISN        string `json:"nisn" db:"nisn"`
	BatchID     string `json:"batch_id,omitempty" db:"batch_id"`
	ParentEmail string `json:"parent_email,omitempty" db:"parent_email"`

	// RegisterDate anchors period counting; zero when the registration flow
	// has not set it yet. Immutable once set.
	RegisterDate time.Time `json:"register_date" db:"register_date"`

	Status Status `json:"status" db:"status"`

	// Legacy registration-fee fields: the original enrollment flow stored the
	// provider invoice reference directly on the student record.
	InvoiceID     string `json:"invoice_id,omitempty" db:"invoice_id"`
	PaymentStatus string `json:"payment_status,omitempty" db:"payment_status"`
}
