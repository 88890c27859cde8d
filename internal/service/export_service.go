package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-center-api/internal/models"
	"github.com/noah-isme/edu-center-api/pkg/export"
	"github.com/noah-isme/edu-center-api/pkg/storage"
)

type profitReader interface {
	AllClassesProfit(ctx context.Context, period models.Period) ([]models.ClassProfitSummary, error)
	PeriodReport(ctx context.Context, period models.Period) (*models.FinancialPeriodReport, bool, error)
}

type passRatesReader interface {
	PassRates(ctx context.Context, classID string) ([]models.ClassPassRate, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds finance report datasets and persists rendered files.
type ExportService struct {
	finance profitReader
	grades  passRatesReader
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(finance profitReader, grades passRatesReader, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		finance: finance,
		grades:  grades,
		storage: storage,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate builds the dataset according to the job definition and stores the
// rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", strings.ToLower(string(job.Type)), timestamp, job.Params.Format)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeNetProfitByClass:
		return s.buildProfitDataset(ctx, job.Params)
	case models.ReportTypeFinancialSummary:
		return s.buildSummaryDataset(ctx, job.Params)
	case models.ReportTypePassRate:
		return s.buildPassRateDataset(ctx)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildProfitDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	period := periodFromParams(params)
	summaries, err := s.finance.AllClassesProfit(ctx, period)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(summaries))
	for _, row := range summaries {
		rows = append(rows, map[string]string{
			"Class ID":     row.ClassID,
			"Course":       row.CourseName,
			"Revenue":      row.Revenue.StringFixed(2),
			"Direct Cost":  row.DirectCost.StringFixed(2),
			"Overhead":     row.OverheadAllocated.StringFixed(2),
			"Gross Profit": row.GrossProfit.StringFixed(2),
			"Net Profit":   row.NetProfit.StringFixed(2),
			"Enrollments":  fmt.Sprintf("%d", row.EnrollmentCount),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Class ID", "Course", "Revenue", "Direct Cost", "Overhead", "Gross Profit", "Net Profit", "Enrollments"},
		Rows:    rows,
	}
	return dataset, "Net Profit by Class", nil
}

func (s *ExportService) buildSummaryDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	period := periodFromParams(params)
	report, _, err := s.finance.PeriodReport(ctx, period)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := []map[string]string{
		{"Metric": "Total Revenue", "Value": report.TotalRevenue.StringFixed(2)},
		{"Metric": "Direct Cost", "Value": report.DirectCost.StringFixed(2)},
		{"Metric": "Overhead Cost", "Value": report.OverheadCost.StringFixed(2)},
		{"Metric": "Total Cost", "Value": report.TotalCost.StringFixed(2)},
		{"Metric": "Net Profit", "Value": report.NetProfit.StringFixed(2)},
		{"Metric": "Students", "Value": fmt.Sprintf("%d", report.StudentCount)},
		{"Metric": "Classes", "Value": fmt.Sprintf("%d", report.ClassCount)},
	}
	dataset := export.Dataset{Headers: []string{"Metric", "Value"}, Rows: rows}
	title := fmt.Sprintf("Financial Summary %s to %s",
		report.PeriodStart.Format("2006-01-02"), report.PeriodEnd.Format("2006-01-02"))
	return dataset, title, nil
}

func (s *ExportService) buildPassRateDataset(ctx context.Context) (export.Dataset, string, error) {
	rates, err := s.grades.PassRates(ctx, "")
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(rates))
	for _, row := range rates {
		rows = append(rows, map[string]string{
			"Class ID":      row.ClassID,
			"Course":        row.CourseName,
			"Graded":        fmt.Sprintf("%d", row.GradedCount),
			"Passed":        fmt.Sprintf("%d", row.PassedCount),
			"Pass Rate (%)": fmt.Sprintf("%.2f", row.PassRate*100),
			"Average Final": fmt.Sprintf("%.2f", row.AverageFinal),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Class ID", "Course", "Graded", "Passed", "Pass Rate (%)", "Average Final"},
		Rows:    rows,
	}
	return dataset, "Pass Rate by Class", nil
}

func periodFromParams(params models.ReportJobParams) models.Period {
	period := models.Period{}
	if params.PeriodStart != nil {
		period.From = *params.PeriodStart
	}
	if params.PeriodEnd != nil {
		period.To = *params.PeriodEnd
	}
	return period
}
