package routes

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/conceptlab/genea/internal/queue"
	"github.com/conceptlab/genea/internal/server/middleware"
	"github.com/conceptlab/genea/internal/storage"
	"github.com/conceptlab/genea/internal/util"
	"github.com/conceptlab/genea/pkg/common"
	"github.com/conceptlab/genea/pkg/ingest"
	"github.com/conceptlab/genea/pkg/loader"
	"github.com/conceptlab/genea/pkg/loader/pdf"
	"github.com/conceptlab/genea/pkg/loader/web"
	"github.com/conceptlab/genea/pkg/logger"
	"github.com/conceptlab/genea/pkg/store"
)

// UploadDocumentHandler accepts a document as a multipart file, a URL or
// inline text. The text is extracted immediately, file originals are
// archived to S3, and an ingest job is queued for the worker.
func UploadDocumentHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	doc, err := buildDocument(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	id, err := app.Store.SaveDocument(ctx, doc)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	doc.ID = id

	publishErr := util.RetryErr(3, func() error {
		return queue.PublishFIFO(app.Queue, queue.IngestQueue, []byte(strconv.FormatInt(id, 10)))
	})
	if publishErr != nil {
		logger.Error("Failed to queue ingest job", "document", id, "err", publishErr)
	}

	return c.JSON(http.StatusOK, doc)
}

func buildDocument(c echo.Context) (*common.Document, error) {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	if fileHeader, err := c.FormFile("file"); err == nil {
		src, err := fileHeader.Open()
		if err != nil {
			return nil, err
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			return nil, err
		}

		text := data
		if strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
			file := loader.SourceFile{
				ID:     fileHeader.Filename,
				Path:   fileHeader.Filename,
				Type:   loader.SourceTypePDF,
				Loader: pdf.NewPDFLoader(loader.BytesLoader{Content: data}),
			}
			text, err = file.GetText(ctx)
			if err != nil {
				return nil, err
			}
		}

		sourceKey := ""
		if app.S3 != nil {
			key, err := gonanoid.New()
			if err != nil {
				return nil, err
			}
			sourceKey, err = storage.PutFile(ctx, app.S3, "documents", fileHeader.Filename, key, bytes.NewReader(data))
			if err != nil {
				logger.Warn("Failed to archive original upload", "file", fileHeader.Filename, "err", err)
				sourceKey = ""
			}
		}

		return &common.Document{
			Name:      fileHeader.Filename,
			SourceKey: sourceKey,
			Content:   string(text),
		}, nil
	}

	var req struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return nil, err
	}

	if req.URL != "" {
		webLoader := web.NewWebLoader()
		file := loader.SourceFile{
			ID:     req.URL,
			Path:   req.URL,
			Type:   loader.SourceTypeWeb,
			Loader: webLoader,
		}
		text, err := file.GetText(ctx)
		if err != nil {
			return nil, err
		}
		return &common.Document{
			Name:    req.URL,
			Content: string(text),
		}, nil
	}

	if strings.TrimSpace(req.Content) != "" {
		name := req.Title
		if name == "" {
			name = "untitled"
		}
		return &common.Document{
			Name:    name,
			Content: req.Content,
		}, nil
	}

	return nil, errors.New("expected a file upload, a url or inline content")
}

func GetDocumentsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	docs, err := app.Store.ListDocuments(c.Request().Context())
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	if docs == nil {
		docs = []common.Document{}
	}
	return c.JSON(http.StatusOK, docs)
}

// DeleteDocumentHandler removes a document, its extracted graph (schema
// cascades) and the archived original.
func DeleteDocumentHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	documentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid document id"})
	}

	doc, err := app.Store.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "document not found"})
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}

	if doc.SourceKey != "" && app.S3 != nil {
		if err := storage.DeleteFile(ctx, app.S3, doc.SourceKey); err != nil {
			logger.Warn("Failed to delete archived original", "document", documentID, "key", doc.SourceKey, "err", err)
		}
	}

	if err := app.Store.DeleteDocument(ctx, documentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "document not found"})
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// ProcessDocumentHandler runs the ingestion pipeline synchronously and
// returns the per-category report. Per-item failures are reported, not
// surfaced as errors; only total failure yields a 500.
func ProcessDocumentHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	documentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid document id"})
	}

	maxParallel := int(util.GetEnvNumeric("AI_PARALLEL_REQ", 1))
	pipeline := ingest.NewPipeline(app.AIClient, app.Store, maxParallel)

	report, err := pipeline.Ingest(c.Request().Context(), documentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "document not found"})
		}
		return c.String(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, report)
}
