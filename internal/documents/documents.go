package documents

import "time"

// Document is the metadata record that owns a stored file's relative path.
// The path is the store's sole handle for the file; losing the record means
// losing the file.
type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository defines the interface for document record persistence.
type Repository interface {
	// Create stores a document record.
	Create(doc *Document) error

	// FindByID retrieves a document record by ID.
	FindByID(id string) (*Document, error)

	// List retrieves all document records.
	List() ([]*Document, error)

	// Update rewrites the name, path, and content type of an existing record.
	Update(doc *Document) error

	// Delete removes a document record by ID.
	Delete(id string) error
}

// Store defines the interface for the physical file storage.
type Store interface {
	// Upload writes content under a new unique relative path.
	Upload(content []byte, fileName string) (string, error)

	// Read loads the entire file at relPath into memory.
	Read(relPath string) ([]byte, error)

	// Rename moves the file to a new unique path derived from newFileName.
	Rename(oldRelPath, newFileName string) (string, error)

	// Delete removes the file at relPath.
	Delete(relPath string) error
}
