package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/google/uuid"

	"freightdesk/internal/model"
	"freightdesk/internal/storage"
	"freightdesk/internal/util"
	"freightdesk/pkg/apierror"
)

// DocumentService stores files attached to loads. File bytes live in
// storage; metadata lives on the load record under "documents".
type DocumentService struct {
	store   *storage.Storage
	records *RecordService
	maxSize int64
	now     func() time.Time
}

func NewDocumentService(store *storage.Storage, records *RecordService, maxSize int64) *DocumentService {
	return &DocumentService{
		store:   store,
		records: records,
		maxSize: maxSize,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Upload saves the content of r as a new document on the load and returns
// its metadata.
func (s *DocumentService) Upload(ctx context.Context, loadID string, filename string, r io.Reader) (model.Record, error) {
	safeName, err := util.SanitizeFilename(filename)
	if err != nil {
		return nil, err
	}

	if _, err := s.records.Get(ctx, model.CollectionLoads, loadID); err != nil {
		return nil, err
	}

	docID := uuid.NewString()
	key := storage.Key(loadID, docID, safeName)

	file, err := s.store.Create(key)
	if err != nil {
		return nil, err
	}

	doc, err := s.write(file, r, safeName)
	closeErr := file.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("close document: %w", closeErr)
	}
	if err != nil {
		_ = s.store.Remove(key)
		return nil, err
	}

	doc["_id"] = docID
	doc["name"] = safeName
	doc["uploadedAt"] = s.now().Format(time.RFC3339Nano)

	if _, err := s.records.AttachDocument(ctx, loadID, doc); err != nil {
		_ = s.store.Remove(key)
		return nil, err
	}

	return doc, nil
}

func (s *DocumentService) write(file *os.File, r io.Reader, name string) (model.Record, error) {
	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}

	written, err := io.CopyBuffer(file, src, make([]byte, 32*1024))
	if err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	if s.maxSize > 0 && written > s.maxSize {
		return nil, apierror.New("PAYLOAD_TOO_LARGE", "File exceeds the upload size limit", name, http.StatusRequestEntityTooLarge)
	}
	if written == 0 {
		return nil, apierror.BadRequest("File is empty", name)
	}

	contentType, err := util.DetectMIME(file, name)
	if err != nil {
		return nil, fmt.Errorf("detect content type: %w", err)
	}

	doc := model.Record{
		"contentType": contentType,
		"size":        float64(written),
	}

	if util.IsDecodableImage(contentType) {
		if cfg, _, decodeErr := image.DecodeConfig(file); decodeErr == nil {
			doc["width"] = float64(cfg.Width)
			doc["height"] = float64(cfg.Height)
		} else {
			slog.Debug("image dimensions unavailable", "name", name, "error", decodeErr)
		}
	}

	return doc, nil
}

// Open returns the stored file of a load document with its metadata. The
// caller closes the file.
func (s *DocumentService) Open(ctx context.Context, loadID string, docID string) (*os.File, model.Record, error) {
	doc, err := s.records.Document(ctx, loadID, docID)
	if err != nil {
		return nil, nil, err
	}

	file, _, err := s.store.Open(storage.Key(loadID, docID, doc.String("name")))
	if err != nil {
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatus == http.StatusNotFound {
			return nil, nil, apierror.NotFound("Document not found", docID)
		}
		return nil, nil, err
	}

	return file, doc, nil
}

// Purge removes every stored file of a deleted load.
func (s *DocumentService) Purge(loadID string) error {
	return s.store.RemoveLoad(loadID)
}
