package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/models"
)

type mockStudentRepo struct {
	students map[string]models.Student
	deleted  []string
}

func (m *mockStudentRepo) List(ctx context.Context, userID string, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, userID, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "generated"
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) SetPayment(ctx context.Context, userID, id string, status models.PaymentStatus, paidAt *time.Time) error {
	s, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Status = status
	s.PaidAt = paidAt
	m.students[id] = s
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, userID, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.students, id)
	return nil
}

type mockOccupancy struct {
	adjustments []struct {
		ids   []string
		delta int
	}
}

func (m *mockOccupancy) AdjustStudentCount(ctx context.Context, userID string, ids []string, delta int) error {
	if len(ids) == 0 {
		return nil
	}
	m.adjustments = append(m.adjustments, struct {
		ids   []string
		delta int
	}{ids, delta})
	return nil
}

type mockComposer struct {
	items map[string]models.Enrollment
}

func (m *mockComposer) Compose(ctx context.Context, userID string, classIDs []string) (models.Enrollments, error) {
	var out models.Enrollments
	seen := map[string]struct{}{}
	for _, id := range classIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if item, ok := m.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockComposer) Total(items models.Enrollments, discount float64) float64 {
	total := items.Subtotal() - discount
	if total < 0 {
		return 0
	}
	return total
}

type mockPayments struct {
	created []models.Payment
}

func (m *mockPayments) Create(ctx context.Context, payment *models.Payment) error {
	payment.ID = "p-generated"
	m.created = append(m.created, *payment)
	return nil
}

type mockReceipts struct {
	enqueued []string
}

func (m *mockReceipts) EnqueueReceipt(ctx context.Context, userID, studentID string) error {
	m.enqueued = append(m.enqueued, studentID)
	return nil
}

type studentFixture struct {
	svc      *StudentService
	repo     *mockStudentRepo
	classes  *mockOccupancy
	payments *mockPayments
	receipts *mockReceipts
}

func newStudentFixture() studentFixture {
	repo := &mockStudentRepo{students: map[string]models.Student{}}
	classes := &mockOccupancy{}
	payments := &mockPayments{}
	receipts := &mockReceipts{}
	composer := &mockComposer{items: map[string]models.Enrollment{
		"c1": {ClassID: "c1", Subject: "Maths", Level: "2BAC", Price: 200},
		"c2": {ClassID: "c2", Subject: "SVT", Level: "2BAC", Price: 150},
	}}
	svc := NewStudentService(repo, classes, composer, payments, receipts, nil, validator.New(), zap.NewNop())
	return studentFixture{svc: svc, repo: repo, classes: classes, payments: payments, receipts: receipts}
}

func TestStudentServiceCreate(t *testing.T) {
	f := newStudentFixture()

	student, err := f.svc.Create(context.Background(), "u1", models.CreateStudentRequest{
		FullName: "Yassine El Amrani",
		Level:    "2BAC",
		ClassIDs: []string{"c1", "c2"},
		Discount: 50,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, 300.0, student.Total)
	assert.Len(t, student.Enrollments, 2)
	require.Len(t, f.classes.adjustments, 1)
	assert.Equal(t, []string{"c1", "c2"}, f.classes.adjustments[0].ids)
	assert.Equal(t, 1, f.classes.adjustments[0].delta)
	assert.Equal(t, []string{student.ID}, f.receipts.enqueued)
}

func TestStudentServiceCreateRequiresClasses(t *testing.T) {
	f := newStudentFixture()

	_, err := f.svc.Create(context.Background(), "u1", models.CreateStudentRequest{
		FullName: "No Classes",
		Level:    "2BAC",
	})
	assert.Error(t, err)
	assert.Empty(t, f.repo.students)
}

func TestStudentServiceCreateUnknownLevel(t *testing.T) {
	f := newStudentFixture()

	_, err := f.svc.Create(context.Background(), "u1", models.CreateStudentRequest{
		FullName: "Bad Level",
		Level:    "7AP",
		ClassIDs: []string{"c1"},
	})
	assert.Error(t, err)
}

func TestStudentServiceUpdateRecomposesEnrollments(t *testing.T) {
	f := newStudentFixture()

	student, err := f.svc.Create(context.Background(), "u1", models.CreateStudentRequest{
		FullName: "Yassine El Amrani",
		Level:    "2BAC",
		ClassIDs: []string{"c1"},
	})
	require.NoError(t, err)

	newClasses := []string{"c2"}
	updated, err := f.svc.Update(context.Background(), "u1", student.ID, models.UpdateStudentRequest{
		ClassIDs: &newClasses,
	})
	require.NoError(t, err)
	require.Len(t, updated.Enrollments, 1)
	assert.Equal(t, "SVT", updated.Enrollments[0].Subject)
	assert.Equal(t, 150.0, updated.Total)

	// One decrement for the dropped class, one increment for the added one.
	require.Len(t, f.classes.adjustments, 3)
	assert.Equal(t, []string{"c1"}, f.classes.adjustments[1].ids)
	assert.Equal(t, -1, f.classes.adjustments[1].delta)
	assert.Equal(t, []string{"c2"}, f.classes.adjustments[2].ids)
	assert.Equal(t, 1, f.classes.adjustments[2].delta)
}

func TestStudentServiceTogglePaymentMarksPaid(t *testing.T) {
	f := newStudentFixture()

	student, err := f.svc.Create(context.Background(), "u1", models.CreateStudentRequest{
		FullName: "Yassine El Amrani",
		Level:    "2BAC",
		ClassIDs: []string{"c1", "c2"},
	})
	require.NoError(t, err)

	updated, err := f.svc.TogglePayment(context.Background(), "u1", student.ID, models.RecordPaymentRequest{Method: models.PaymentMethodCash})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, updated.Status)
	require.NotNil(t, updated.PaidAt)
	require.Len(t, f.payments.created, 1)
	assert.Equal(t, 350.0, f.payments.created[0].Amount)
	assert.Equal(t, models.PaymentMethodCash, f.payments.created[0].Method)
}

func TestStudentServiceTogglePaymentBackToPending(t *testing.T) {
	f := newStudentFixture()

	student, err := f.svc.Create(context.Background(), "u1", models.CreateStudentRequest{
		FullName: "Yassine El Amrani",
		Level:    "2BAC",
		ClassIDs: []string{"c1"},
	})
	require.NoError(t, err)

	_, err = f.svc.TogglePayment(context.Background(), "u1", student.ID, models.RecordPaymentRequest{Method: models.PaymentMethodCash})
	require.NoError(t, err)

	updated, err := f.svc.TogglePayment(context.Background(), "u1", student.ID, models.RecordPaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, updated.Status)
	assert.Nil(t, updated.PaidAt)
	// The ledger keeps the original entry.
	assert.Len(t, f.payments.created, 1)
}

func TestStudentServiceNewStudentStartsUnpaid(t *testing.T) {
	f := newStudentFixture()

	student, err := f.svc.Create(context.Background(), "u1", models.CreateStudentRequest{
		FullName: "Yassine El Amrani",
		Level:    "2BAC",
		ClassIDs: []string{"c1"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusUnpaid, student.Status)
	assert.Nil(t, student.PaidAt)

	// Unpaid is a settled state of its own; the toggle lifts it straight
	// to Paid, and only ever drops back to Pending afterwards.
	updated, err := f.svc.TogglePayment(context.Background(), "u1", student.ID, models.RecordPaymentRequest{Method: models.PaymentMethodTransfer})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, updated.Status)

	updated, err = f.svc.TogglePayment(context.Background(), "u1", student.ID, models.RecordPaymentRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, updated.Status)
}

func TestStudentServiceDeleteFreesSeats(t *testing.T) {
	f := newStudentFixture()

	student, err := f.svc.Create(context.Background(), "u1", models.CreateStudentRequest{
		FullName: "Yassine El Amrani",
		Level:    "2BAC",
		ClassIDs: []string{"c1"},
	})
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), "u1", student.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{student.ID}, f.repo.deleted)
	last := f.classes.adjustments[len(f.classes.adjustments)-1]
	assert.Equal(t, []string{"c1"}, last.ids)
	assert.Equal(t, -1, last.delta)
}
