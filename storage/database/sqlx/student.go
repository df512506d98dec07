package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/sekolahku/sps/core/student"
)

const studentColumns = "id, full_name, nisn, batch_id, parent_email, register_date, status, invoice_id, payment_status"

type StudentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*StudentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// studentRow maps the student table; register_date is NULL until the
// registration flow sets it.
type studentRow struct {
	ID            string       `db:"id"`
	FullName      string       `db:"full_name"`
	NISN          string       `db:"nisn"`
	BatchID       string       `db:"batch_id"`
	ParentEmail   string       `db:"parent_email"`
	RegisterDate  sql.NullTime `db:"register_date"`
	Status        string       `db:"status"`
	InvoiceID     string       `db:"invoice_id"`
	PaymentStatus string       `db:"payment_status"`
}

func (row studentRow) toStudent() student.Student {
	var registered time.Time
	if row.RegisterDate.Valid {
		registered = row.RegisterDate.Time
	}
	return student.Student{
		ID:            row.ID,
		FullName:      row.FullName,
		NISN:          row.NISN,
		BatchID:       row.BatchID,
		ParentEmail:   row.ParentEmail,
		RegisterDate:  registered,
		Status:        student.Status(row.Status),
		InvoiceID:     row.InvoiceID,
		PaymentStatus: row.PaymentStatus,
	}
}

func (repo *StudentRepository) GetStudentByID(id string) (student.Student, error) {
	var row studentRow
	err := repo.db.Get(&row, "SELECT "+studentColumns+" FROM student WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	}
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting student")
	}
	return row.toStudent(), nil
}

func (repo *StudentRepository) QueryAllStudents() ([]student.Student, error) {
	rows := make([]studentRow, 0)
	err := repo.db.Select(&rows, "SELECT "+studentColumns+" FROM student ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (repo *StudentRepository) GetStudentByInvoiceID(invoiceID string) (student.Student, error) {
	var row studentRow
	err := repo.db.Get(&row,
		"SELECT "+studentColumns+" FROM student WHERE invoice_id = $1 AND invoice_id <> ''", invoiceID)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	}
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting student by invoice")
	}
	return row.toStudent(), nil
}

func (repo *StudentRepository) UpdateStudentPayment(id, paymentStatus string, status student.Status) (student.Student, error) {
	var row studentRow
	err := repo.db.Get(&row,
		`UPDATE student SET payment_status = $1, status = $2 WHERE id = $3
		 RETURNING `+studentColumns, paymentStatus, status, id)
	if err == sql.ErrNoRows {
		return student.Student{}, student.ErrNotFound
	}
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student payment")
	}
	return row.toStudent(), nil
}
