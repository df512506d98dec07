// Package dummydb provides in-memory repositories for DEV mode and tests.
// Each table carries its own lock; mutations against one record serialize on
// the owning table, mirroring the row-level guarantees of the SQL backend.
package dummydb

import (
	"sync"

	"github.com/sekolahku/sps/core/billing"
	"github.com/sekolahku/sps/core/student"
	"github.com/sekolahku/sps/core/uniform"
)

type (
	billTypeTable struct {
		sync.RWMutex
		table map[string]*billing.BillType
	}

	transactionTable struct {
		sync.RWMutex
		table map[string]*billing.Transaction
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}

	uniformTable struct {
		sync.RWMutex
		uniforms map[string]*uniform.Uniform
		orders   map[string]*uniform.Order
	}

	DB struct {
		billTypes    *billTypeTable
		transactions *transactionTable
		students     *studentTable
		uniforms     *uniformTable
	}
)

func NewDB() *DB {
	return &DB{
		billTypes:    &billTypeTable{table: make(map[string]*billing.BillType)},
		transactions: &transactionTable{table: make(map[string]*billing.Transaction)},
		students:     &studentTable{table: make(map[string]*student.Student)},
		uniforms: &uniformTable{
			uniforms: make(map[string]*uniform.Uniform),
			orders:   make(map[string]*uniform.Order),
		},
	}
}
