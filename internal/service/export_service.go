package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hshisoka200/soutienflow-api/internal/models"
	appErrors "github.com/hshisoka200/soutienflow-api/pkg/errors"
	"github.com/hshisoka200/soutienflow-api/pkg/export"
	"github.com/hshisoka200/soutienflow-api/pkg/jobs"
	"github.com/hshisoka200/soutienflow-api/pkg/storage"
)

// ReceiptJobType tags queued receipt renders.
const ReceiptJobType = "receipt"

// ReceiptJobPayload is the queue payload for a receipt render.
type ReceiptJobPayload struct {
	UserID    string
	StudentID string
}

type exportStudentReader interface {
	FindByID(ctx context.Context, userID, id string) (*models.Student, error)
	List(ctx context.Context, userID string, filter models.StudentFilter) ([]models.Student, int, error)
}

type exportClassReader interface {
	FindByID(ctx context.Context, userID, id string) (*models.Class, error)
}

type documentRenderer interface {
	RenderReceipt(doc export.ReceiptDoc) ([]byte, error)
	RenderRoster(doc export.RosterDoc) ([]byte, error)
}

type rosterExcelRenderer interface {
	RenderRoster(doc export.RosterDoc) ([]byte, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ExportConfig tunes document generation.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string    `json:"-"`
	Filename     string    `json:"filename"`
	Token        string    `json:"token"`
	URL          string    `json:"url"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ExportService renders receipts and class rosters and hands out signed
// download links.
type ExportService struct {
	students exportStudentReader
	classes  exportClassReader
	profiles profileRepository
	storage  fileStorage
	pdf      documentRenderer
	excel    rosterExcelRenderer
	signer   *storage.SignedURLSigner
	queue    jobEnqueuer
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService. queue may be nil, in which
// case receipts render synchronously on request only.
func NewExportService(students exportStudentReader, classes exportClassReader, profiles profileRepository, store fileStorage, pdf documentRenderer, excel rosterExcelRenderer, signer *storage.SignedURLSigner, queue jobEnqueuer, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if pdf == nil {
		pdf = export.NewPDFRenderer("", "")
	}
	if excel == nil {
		excel = export.NewExcelRenderer()
	}
	return &ExportService{
		students: students,
		classes:  classes,
		profiles: profiles,
		storage:  store,
		pdf:      pdf,
		excel:    excel,
		signer:   signer,
		queue:    queue,
		logger:   logger,
		cfg:      cfg,
	}
}

// EnqueueReceipt schedules a background receipt render for a student.
func (s *ExportService) EnqueueReceipt(ctx context.Context, userID, studentID string) error {
	if s.queue == nil {
		return nil
	}
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    ReceiptJobType,
		Payload: ReceiptJobPayload{UserID: userID, StudentID: studentID},
	})
}

// HandleJob processes queued receipt renders.
func (s *ExportService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(ReceiptJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
	}
	result, err := s.GenerateReceipt(ctx, payload.UserID, payload.StudentID)
	if err != nil {
		return err
	}
	s.logger.Info("receipt rendered",
		zap.String("student_id", payload.StudentID),
		zap.String("path", result.RelativePath))
	return nil
}

// GenerateReceipt renders the enrollment receipt PDF for a student and
// returns a signed download link.
func (s *ExportService) GenerateReceipt(ctx context.Context, userID, studentID string) (*ExportResult, error) {
	student, err := s.students.FindByID(ctx, userID, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	doc := export.ReceiptDoc{
		CenterName:  s.centerName(ctx, userID),
		StudentName: student.FullName,
		Level:       student.Level,
		IssuedAt:    time.Now(),
		Subtotal:    student.Enrollments.Subtotal(),
		Discount:    student.Discount,
		Total:       student.Total,
	}
	for _, item := range student.Enrollments {
		doc.Lines = append(doc.Lines, export.ReceiptLine{
			Subject:  item.Subject,
			Level:    item.Level,
			Teacher:  item.Teacher,
			Schedule: item.Schedule,
			Price:    item.Price,
		})
	}

	payload, err := s.pdf.RenderReceipt(doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return s.store(userID, student.ID, export.ReceiptFilename(student.FullName), payload)
}

// GenerateRoster renders the student list of a class. format is "pdf" or
// "xlsx".
func (s *ExportService) GenerateRoster(ctx context.Context, userID, classID, format string) (*ExportResult, error) {
	class, err := s.classes.FindByID(ctx, userID, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	students, _, err := s.students.List(ctx, userID, models.StudentFilter{
		ClassID:   classID,
		PageSize:  100,
		SortBy:    "full_name",
		SortOrder: "ASC",
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class students")
	}

	doc := export.RosterDoc{
		CenterName: s.centerName(ctx, userID),
		ClassName:  class.Name,
		Subject:    class.Subject,
		Level:      class.Level,
		IssuedAt:   time.Now(),
	}
	for _, student := range students {
		doc.Rows = append(doc.Rows, export.RosterRow{
			StudentName: student.FullName,
			Level:       student.Level,
			EnrolledAt:  student.EnrolledAt,
		})
	}

	var payload []byte
	var ext string
	switch format {
	case "", "pdf":
		ext = "pdf"
		payload, err = s.pdf.RenderRoster(doc)
	case "xlsx":
		ext = "xlsx"
		payload, err = s.excel.RenderRoster(doc)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	return s.store(userID, class.ID, export.RosterFilename(class.Name, ext), payload)
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (ownerID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// OpenFile returns the stored document for streaming.
func (s *ExportService) OpenFile(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes rendered documents older than the result TTL.
func (s *ExportService) Cleanup() {
	removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("document cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("documents cleaned up", zap.Int("count", len(removed)))
	}
}

func (s *ExportService) store(userID, subjectID, filename string, payload []byte) (*ExportResult, error) {
	relPath, err := s.storage.Save(fmt.Sprintf("%s/%s", userID, filename), payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}
	token, expiresAt, err := s.signer.Generate(subjectID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &ExportResult{
		RelativePath: relPath,
		Filename:     filename,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *ExportService) centerName(ctx context.Context, userID string) string {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil || profile.CenterName == "" {
		return "SoutienFlow"
	}
	return profile.CenterName
}
