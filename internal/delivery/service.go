// Package delivery turns assembled reports into files: HTML or PDF rendered,
// uploaded to object storage and recorded as a File row.
package delivery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/apperr"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/metrics"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/report"
	"github.com/JeyllonSandoval/agritech-backend-sub000/internal/store"
)

// Format is the artifact type of a delivered report.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts "html" or "pdf"; empty means pdf.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatHTML:
		return FormatHTML, nil
	}
	return "", apperr.Validation(fmt.Sprintf("unsupported report format %q", s), nil)
}

func (f Format) contentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "application/pdf"
}

// PDFConverter prints HTML to PDF.
type PDFConverter interface {
	Convert(ctx context.Context, html []byte) ([]byte, error)
}

// ObjectStorage stores artifacts and returns their URL.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// FileStore records delivered artifacts.
type FileStore interface {
	CreateFile(ctx context.Context, f *store.File) error
}

// Service delivers reports.
type Service struct {
	html    *HTMLRenderer
	pdf     PDFConverter
	storage ObjectStorage
	files   FileStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a delivery Service. pdf may be nil, in which case only
// HTML delivery is available.
func NewService(html *HTMLRenderer, pdf PDFConverter, storage ObjectStorage, files FileStore, logger *zap.Logger) *Service {
	return &Service{
		html:    html,
		pdf:     pdf,
		storage: storage,
		files:   files,
		logger:  logger,
		now:     time.Now,
	}
}

// DeliverDeviceReport renders, uploads and records a device report.
func (s *Service) DeliverDeviceReport(ctx context.Context, userID string, r *report.DeviceReport, format Format) (*store.File, error) {
	page, err := s.html.RenderDevice(r)
	if err != nil {
		return nil, apperr.Internal("render device report", err)
	}
	return s.deliver(ctx, userID, "device-report-"+r.Device.Name, page, format)
}

// DeliverGroupReport renders, uploads and records a group report.
func (s *Service) DeliverGroupReport(ctx context.Context, userID string, r *report.GroupReport, format Format) (*store.File, error) {
	page, err := s.html.RenderGroup(r)
	if err != nil {
		return nil, apperr.Internal("render group report", err)
	}
	return s.deliver(ctx, userID, "group-report-"+r.Group.Name, page, format)
}

func (s *Service) deliver(ctx context.Context, userID, title string, page []byte, format Format) (*store.File, error) {
	if s.storage == nil {
		return nil, apperr.Internal("report storage is not configured", nil)
	}

	body := page
	if format == FormatPDF {
		if s.pdf == nil {
			return nil, apperr.Validation("pdf rendering is disabled; request format=html", nil)
		}
		var err error
		if body, err = s.pdf.Convert(ctx, page); err != nil {
			return nil, apperr.Internal("convert report to pdf", err)
		}
	}

	name := fmt.Sprintf("%s-%s.%s", slug(title), s.now().UTC().Format("20060102-150405"), format)
	key := fmt.Sprintf("reports/%s/%s-%s", userID, uuid.NewString(), name)

	url, err := s.storage.Upload(ctx, key, body, format.contentType())
	if err != nil {
		return nil, apperr.Internal("upload report", err)
	}

	f := &store.File{
		UserID:      userID,
		Name:        name,
		URL:         url,
		ContentType: format.contentType(),
		Size:        int64(len(body)),
	}
	if err := s.files.CreateFile(ctx, f); err != nil {
		return nil, apperr.Internal("record report file", err)
	}

	metrics.ReportFilesDelivered.WithLabelValues(string(format)).Inc()
	s.logger.Info("[Delivery] report delivered",
		zap.String("user_id", userID),
		zap.String("file_id", f.ID),
		zap.String("format", string(format)),
		zap.Int64("size", f.Size),
	)
	return f, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	s = nonSlug.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "report"
	}
	return s
}
