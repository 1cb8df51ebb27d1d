package documents

import (
	"fmt"
	"time"

	"filevault/internal/storage"
)

// Service provides application-level document operations on top of the file
// store and the metadata repository.
type Service struct {
	store Store
	repo  Repository
}

// NewService creates a new document service.
func NewService(store Store, repo Repository) *Service {
	return &Service{
		store: store,
		repo:  repo,
	}
}

// UploadRequest represents a document upload.
type UploadRequest struct {
	Name    string
	Content []byte
}

// Upload stores the content and creates the owning record. If the record
// cannot be saved the stored file is removed again.
func (s *Service) Upload(req *UploadRequest) (*Document, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("document name is required")
	}

	relPath, err := s.store.Upload(req.Content, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &Document{
		ID:          newID(),
		Name:        req.Name,
		Path:        relPath,
		ContentType: storage.ContentType(req.Name),
		Size:        int64(len(req.Content)),
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(doc); err != nil {
		s.store.Delete(relPath)
		return nil, fmt.Errorf("failed to save document record: %w", err)
	}

	return doc, nil
}

// Download returns a document's record and its full content.
func (s *Service) Download(id string) (*Document, []byte, error) {
	doc, err := s.repo.FindByID(id)
	if err != nil {
		return nil, nil, fmt.Errorf("document not found: %w", err)
	}

	content, err := s.store.Read(doc.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	return doc, content, nil
}

// List retrieves all document records.
func (s *Service) List() ([]*Document, error) {
	docs, err := s.repo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// Rename moves the stored file to a path derived from newName and updates
// the record. If the move fails the old path and record stay valid.
func (s *Service) Rename(id, newName string) (*Document, error) {
	if newName == "" {
		return nil, fmt.Errorf("document name is required")
	}

	doc, err := s.repo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("document not found: %w", err)
	}

	newPath, err := s.store.Rename(doc.Path, newName)
	if err != nil {
		return nil, fmt.Errorf("failed to rename file: %w", err)
	}

	doc.Name = newName
	doc.Path = newPath
	doc.ContentType = storage.ContentType(newName)

	if err := s.repo.Update(doc); err != nil {
		return nil, fmt.Errorf("failed to update document record: %w", err)
	}

	return doc, nil
}

// Delete removes the record and then the stored file. The file delete is
// best-effort under the store's default policy.
func (s *Service) Delete(id string) error {
	doc, err := s.repo.FindByID(id)
	if err != nil {
		return fmt.Errorf("document not found: %w", err)
	}

	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	s.store.Delete(doc.Path)
	return nil
}

// newID creates a unique document identifier.
func newID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
