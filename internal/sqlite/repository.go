package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"filevault/internal/documents"
)

// Repository implements documents.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite repository
func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &Repository{db: db}

	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// initSchema creates the necessary database tables
func (r *Repository) initSchema() error {
	createTableQuery := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		path TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);
	`
	if _, err := r.db.Exec(createTableQuery); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	return nil
}

// Create stores a document record
func (r *Repository) Create(doc *documents.Document) error {
	query := `
	INSERT INTO documents (id, name, path, content_type, size, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		doc.ID,
		doc.Name,
		doc.Path,
		doc.ContentType,
		doc.Size,
		doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document record: %w", err)
	}

	return nil
}

// FindByID retrieves a document record by ID
func (r *Repository) FindByID(id string) (*documents.Document, error) {
	query := `
	SELECT id, name, path, content_type, size, created_at
	FROM documents
	WHERE id = ?
	`

	var doc documents.Document
	err := r.db.QueryRow(query, id).Scan(
		&doc.ID,
		&doc.Name,
		&doc.Path,
		&doc.ContentType,
		&doc.Size,
		&doc.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("document not found")
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return &doc, nil
}

// List retrieves all document records
func (r *Repository) List() ([]*documents.Document, error) {
	query := `
	SELECT id, name, path, content_type, size, created_at
	FROM documents
	ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []*documents.Document
	for rows.Next() {
		var doc documents.Document
		err := rows.Scan(
			&doc.ID,
			&doc.Name,
			&doc.Path,
			&doc.ContentType,
			&doc.Size,
			&doc.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, &doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return docs, nil
}

// Update rewrites the name, path, and content type of an existing record
func (r *Repository) Update(doc *documents.Document) error {
	query := `
	UPDATE documents
	SET name = ?, path = ?, content_type = ?
	WHERE id = ?
	`

	result, err := r.db.Exec(query, doc.Name, doc.Path, doc.ContentType, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to update document record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("document not found")
	}

	return nil
}

// Delete removes a document record by ID
func (r *Repository) Delete(id string) error {
	query := `DELETE FROM documents WHERE id = ?`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("document not found")
	}

	return nil
}
