package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conceptlab/genea/internal/util"
	"github.com/conceptlab/genea/pkg/ai"
	"github.com/conceptlab/genea/pkg/ingest"
	"github.com/conceptlab/genea/pkg/loader"
	"github.com/conceptlab/genea/pkg/loader/pdf"
	s3loader "github.com/conceptlab/genea/pkg/loader/s3"
	"github.com/conceptlab/genea/pkg/logger"
	"github.com/conceptlab/genea/pkg/store"
	pgxstore "github.com/conceptlab/genea/pkg/store/pgx"
)

// ProcessIngestMessage runs the extraction pipeline for the document id in
// the message body. A document whose text was never extracted server-side
// is re-derived from its archived original first.
func ProcessIngestMessage(
	ctx context.Context,
	s3Client *s3.Client,
	aiClient ai.GenealogyAIClient,
	pg *pgxpool.Pool,
	body string,
) error {
	documentID, err := strconv.ParseInt(strings.TrimSpace(body), 10, 64)
	if err != nil {
		// Unparseable messages never become parseable, drop without retry.
		logger.Error("Invalid ingest message body", "body", body, "err", err)
		return nil
	}

	st := pgxstore.New(pg)

	doc, err := st.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Warn("Document no longer exists, dropping message", "document", documentID)
			return nil
		}
		return fmt.Errorf("failed to load document %d: %w", documentID, err)
	}

	if strings.TrimSpace(doc.Content) == "" && doc.SourceKey != "" {
		text, err := extractFromArchive(ctx, s3Client, documentID, doc.SourceKey)
		if err != nil {
			return fmt.Errorf("failed to extract text for document %d: %w", documentID, err)
		}
		if err := st.UpdateDocumentContent(ctx, documentID, string(text)); err != nil {
			return fmt.Errorf("failed to store extracted text for document %d: %w", documentID, err)
		}
	}

	maxParallel := int(util.GetEnvNumeric("AI_PARALLEL_REQ", 1))
	pipeline := ingest.NewPipeline(aiClient, st, maxParallel)

	report, err := pipeline.Ingest(ctx, documentID)
	if err != nil {
		return err
	}

	logger.Info("Ingestion finished",
		"document", documentID,
		"concepts", report.Concepts,
		"relationships", report.Relationships,
		"frameworks", report.Frameworks,
		"vectors", report.Vectors,
	)
	return nil
}

// extractFromArchive resolves the archived original to plain text. PDFs go
// through pdftotext, everything else is treated as text.
func extractFromArchive(ctx context.Context, s3Client *s3.Client, documentID int64, sourceKey string) ([]byte, error) {
	bucket := util.GetEnv("AWS_BUCKET")
	source := s3loader.NewS3Loader(bucket, s3Client)

	file := loader.SourceFile{
		ID:     strconv.FormatInt(documentID, 10),
		Path:   sourceKey,
		Type:   loader.SourceTypeText,
		Loader: source,
	}
	if strings.HasSuffix(strings.ToLower(sourceKey), ".pdf") {
		file.Type = loader.SourceTypePDF
		file.Loader = pdf.NewPDFLoader(source)
	}

	return file.GetText(ctx)
}
