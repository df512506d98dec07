package dummydb

import (
	"sort"

	"github.com/sekolahku/sps/core/student"
)

type StudentRepository struct {
	db *studentTable
}

var _ student.Repository = (*StudentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *StudentRepository {
	return &StudentRepository{db: db.students}
}

// SetStudent installs or replaces a profile (test/seed helper; registration
// itself is out of scope).
func (repo *StudentRepository) SetStudent(stu student.Student) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[stu.ID] = &stu
}

func (repo *StudentRepository) GetStudentByID(id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if stu, ok := repo.db.table[id]; ok {
		return *stu, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *StudentRepository) QueryAllStudents() ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]student.Student, 0, len(repo.db.table))
	for _, stu := range repo.db.table {
		students = append(students, *stu)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (repo *StudentRepository) GetStudentByInvoiceID(invoiceID string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, stu := range repo.db.table {
		if stu.InvoiceID != "" && stu.InvoiceID == invoiceID {
			return *stu, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *StudentRepository) UpdateStudentPayment(id, paymentStatus string, status student.Status) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	stu, ok := repo.db.table[id]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	stu.PaymentStatus = paymentStatus
	stu.Status = status
	return *stu, nil
}
