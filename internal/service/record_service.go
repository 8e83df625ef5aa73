package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"freightdesk/internal/model"
	"freightdesk/internal/repository"
	"freightdesk/pkg/apierror"
)

const (
	fieldID           = "_id"
	fieldCreatedAt    = "createdAt"
	fieldUpdatedAt    = "updatedAt"
	fieldIsActive     = "isActive"
	fieldPostedAt     = "postedAt"
	fieldPasswordHash = "passwordHash"
	fieldPassword     = "password"
	fieldConfirm      = "confirmPassword"
	fieldEmail        = "email"
	fieldDocuments    = "documents"

	bcryptCost = 12
)

// RecordService implements the generic collection endpoints on top of a Store.
type RecordService struct {
	store    repository.Store
	maxLimit int
	cost     int
	now      func() time.Time

	// serializes user writes so the email check and the insert are atomic
	usersMu sync.Mutex
}

func NewRecordService(store repository.Store, maxLimit int) *RecordService {
	return &RecordService{
		store:    store,
		maxLimit: maxLimit,
		cost:     bcryptCost,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *RecordService) MaxLimit() int {
	return s.maxLimit
}

func checkCollection(collection string) error {
	if !model.IsCollection(collection) {
		return apierror.NotFound("Unknown collection", collection)
	}
	return nil
}

// List returns one page of the filtered, sorted collection.
func (s *RecordService) List(ctx context.Context, collection string, params ListParams) ([]model.Record, model.Pagination, error) {
	all, err := s.Filtered(ctx, collection, params)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	page, meta := params.PageOf(all)
	return page, meta, nil
}

// Filtered returns every record matching params, unpaged.
func (s *RecordService) Filtered(ctx context.Context, collection string, params ListParams) ([]model.Record, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	records, err := s.store.List(ctx, collection)
	if err != nil {
		return nil, err
	}

	out := params.Apply(records, s.now())
	for i := range out {
		out[i] = public(out[i])
	}
	return out, nil
}

func (s *RecordService) Get(ctx context.Context, collection string, id string) (model.Record, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	rec, err := s.store.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	return public(rec), nil
}

func (s *RecordService) Create(ctx context.Context, collection string, body model.Record) (model.Record, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	now := s.stamp()
	rec := body.Clone()
	delete(rec, fieldPasswordHash)
	rec[fieldID] = uuid.NewString()
	rec[fieldCreatedAt] = now
	rec[fieldUpdatedAt] = now
	if _, ok := rec[fieldIsActive]; !ok {
		rec[fieldIsActive] = true
	}

	switch collection {
	case model.CollectionLoads:
		rec[fieldPostedAt] = now
		if rec.String("status") == "" {
			rec["status"] = string(model.LoadPending)
		}
		if rec.String("loadNumber") == "" {
			rec["loadNumber"] = "FD-" + strings.ToUpper(rec.ID()[:8])
		}
	case model.CollectionUsers:
		s.usersMu.Lock()
		defer s.usersMu.Unlock()

		if err := s.prepareUser(ctx, rec, ""); err != nil {
			return nil, err
		}
	}

	if err := s.store.Insert(ctx, collection, rec); err != nil {
		return nil, err
	}
	return public(rec), nil
}

// Update merges body into the stored record. Identity and audit fields
// cannot be overwritten.
func (s *RecordService) Update(ctx context.Context, collection string, id string, body model.Record) (model.Record, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	if collection == model.CollectionUsers {
		s.usersMu.Lock()
		defer s.usersMu.Unlock()
	}

	rec, err := s.store.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}

	for k, v := range body {
		switch k {
		case fieldID, fieldCreatedAt, fieldUpdatedAt, fieldPasswordHash, fieldPostedAt, fieldDocuments:
			continue
		}
		rec[k] = v
	}
	rec[fieldUpdatedAt] = s.stamp()

	if collection == model.CollectionUsers {
		if err := s.prepareUser(ctx, rec, id); err != nil {
			return nil, err
		}
	}

	if err := s.store.Replace(ctx, collection, rec); err != nil {
		return nil, err
	}
	return public(rec), nil
}

func (s *RecordService) Delete(ctx context.Context, collection string, id string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	return s.store.Delete(ctx, collection, id)
}

func (s *RecordService) ToggleActive(ctx context.Context, collection string, id string) (model.Record, error) {
	return s.mutate(ctx, collection, id, func(rec model.Record) error {
		rec[fieldIsActive] = !rec.Bool(fieldIsActive)
		return nil
	})
}

// RefreshAge restarts a load's age from now.
func (s *RecordService) RefreshAge(ctx context.Context, id string) (model.Record, error) {
	return s.mutate(ctx, model.CollectionLoads, id, func(rec model.Record) error {
		rec[fieldPostedAt] = s.stamp()
		return nil
	})
}

// AttachDocument appends document metadata to a load.
func (s *RecordService) AttachDocument(ctx context.Context, loadID string, doc model.Record) (model.Record, error) {
	return s.mutate(ctx, model.CollectionLoads, loadID, func(rec model.Record) error {
		docs, _ := rec[fieldDocuments].([]any)
		rec[fieldDocuments] = append(docs, map[string]any(doc.Clone()))
		return nil
	})
}

// Document finds document metadata on a load.
func (s *RecordService) Document(ctx context.Context, loadID string, docID string) (model.Record, error) {
	load, err := s.store.Get(ctx, model.CollectionLoads, loadID)
	if err != nil {
		return nil, err
	}

	docs, _ := load[fieldDocuments].([]any)
	for _, raw := range docs {
		doc, ok := raw.(map[string]any)
		if ok && model.Record(doc).ID() == docID {
			return model.Record(doc).Clone(), nil
		}
	}

	return nil, apierror.NotFound("Document not found", docID)
}

func (s *RecordService) mutate(ctx context.Context, collection string, id string, fn func(model.Record) error) (model.Record, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}

	rec, err := s.store.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}

	if err := fn(rec); err != nil {
		return nil, err
	}
	rec[fieldUpdatedAt] = s.stamp()

	if err := s.store.Replace(ctx, collection, rec); err != nil {
		return nil, err
	}
	return public(rec), nil
}

// prepareUser enforces the user rules on rec in place: a unique email and a
// confirmed password, stored only as a bcrypt hash. selfID is empty on create.
func (s *RecordService) prepareUser(ctx context.Context, rec model.Record, selfID string) error {
	email := strings.TrimSpace(rec.String(fieldEmail))
	if email == "" {
		return apierror.BadRequest("Email is required", fieldEmail)
	}
	rec[fieldEmail] = email

	existing, err := s.store.FindBy(ctx, model.CollectionUsers, fieldEmail, email)
	if err == nil && existing.ID() != selfID {
		return apierror.Conflict(model.ErrEmailExists.Error(), email)
	}

	password := rec.String(fieldPassword)
	confirm := rec.String(fieldConfirm)
	delete(rec, fieldPassword)
	delete(rec, fieldConfirm)

	if password == "" {
		if selfID == "" {
			return apierror.BadRequest("Password is required", fieldPassword)
		}
		return nil
	}
	if password != confirm {
		return apierror.BadRequest(model.ErrPasswordMismatch.Error(), fieldConfirm)
	}
	if len(password) < 8 {
		return apierror.BadRequest("Password must be at least 8 characters", fieldPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	rec[fieldPasswordHash] = string(hash)

	return nil
}

func (s *RecordService) stamp() string {
	return s.now().Format(time.RFC3339Nano)
}

// public strips fields that never leave the backend.
func public(rec model.Record) model.Record {
	if _, ok := rec[fieldPasswordHash]; !ok {
		return rec
	}
	out := rec.Clone()
	delete(out, fieldPasswordHash)
	return out
}
