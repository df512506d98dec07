package student

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sekolahku/sps/core"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
)

type (
	Repository interface {
		GetStudentByID(id string) (Student, error)
		QueryAllStudents() ([]Student, error)
		// GetStudentByInvoiceID finds the student whose legacy registration
		// invoice matches; ErrNotFound when no student references it.
		GetStudentByInvoiceID(invoiceID string) (Student, error)
		// UpdateStudentPayment patches only the legacy payment fields,
		// serialized per student.
		UpdateStudentPayment(id, paymentStatus string, status Status) (Student, error)
	}

	ServiceInterface interface {
		GetByID(id string) (Student, error)
		QueryAll() ([]Student, error)
	}

	Service struct {
		repo Repository
		log  core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, log core.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (svc *Service) GetByID(id string) (Student, error) {
	return svc.repo.GetStudentByID(id)
}

func (svc *Service) QueryAll() ([]Student, error) {
	return svc.repo.QueryAllStudents()
}

// ReconcileInvoice applies a provider notification to the legacy
// registration-fee flow, where the invoice reference lives on the student
// record itself. Reports whether any student referenced the invoice.
func (svc *Service) ReconcileInvoice(invoiceID, providerStatus string) (bool, error) {
	stu, err := svc.repo.GetStudentByInvoiceID(invoiceID)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	paymentStatus := strings.ToUpper(providerStatus)
	status := stu.Status
	switch paymentStatus {
	case "PAID", "SETTLED":
		status = StatusRegistered
		svc.log.Info(fmt.Sprintf("student %s registration payment confirmed; now REGISTERED", stu.ID))
	case "EXPIRED":
		svc.log.Info(fmt.Sprintf("student %s registration payment expired", stu.ID))
	default:
		svc.log.Warn(fmt.Sprintf("student %s: unknown provider status %q recorded as-is", stu.ID, providerStatus))
	}

	if _, err := svc.repo.UpdateStudentPayment(stu.ID, paymentStatus, status); err != nil {
		return true, err
	}
	return true, nil
}
