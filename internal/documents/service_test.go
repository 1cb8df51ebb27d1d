package documents

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filevault/internal/storage"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	docs map[string]*Document
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: make(map[string]*Document)}
}

func (r *fakeRepo) Create(doc *Document) error {
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeRepo) FindByID(id string) (*Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document not found")
	}
	return doc, nil
}

func (r *fakeRepo) List() ([]*Document, error) {
	var docs []*Document
	for _, doc := range r.docs {
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *fakeRepo) Update(doc *Document) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return fmt.Errorf("document not found")
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeRepo) Delete(id string) error {
	if _, ok := r.docs[id]; !ok {
		return fmt.Errorf("document not found")
	}
	delete(r.docs, id)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *storage.Storage) {
	t.Helper()
	store := storage.New(storage.Config{BasePath: t.TempDir()})
	repo := newFakeRepo()
	return NewService(store, repo), repo, store
}

func TestServiceUpload(t *testing.T) {
	svc, repo, _ := newTestService(t)

	doc, err := svc.Upload(&UploadRequest{Name: "report 1.pdf", Content: []byte("hello")})
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "report 1.pdf", doc.Name)
	assert.Regexp(t, `^uploads/\d+-report_1\.pdf$`, doc.Path)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, int64(5), doc.Size)

	stored, err := repo.FindByID(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Path, stored.Path)
}

func TestServiceUploadEmptyName(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Upload(&UploadRequest{Name: "", Content: []byte("x")})
	assert.Error(t, err)
}

func TestServiceDownload(t *testing.T) {
	svc, _, _ := newTestService(t)

	doc, err := svc.Upload(&UploadRequest{Name: "photo.png", Content: []byte("pixels")})
	require.NoError(t, err)

	got, content, err := svc.Download(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, "image/png", got.ContentType)
	assert.Equal(t, []byte("pixels"), content)
}

func TestServiceDownloadUnknownID(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, _, err := svc.Download("nope")
	assert.Error(t, err)
}

func TestServiceRename(t *testing.T) {
	svc, repo, store := newTestService(t)

	doc, err := svc.Upload(&UploadRequest{Name: "draft.pdf", Content: []byte("body")})
	require.NoError(t, err)
	oldPath := doc.Path

	renamed, err := svc.Rename(doc.ID, "final scan.tiff")
	require.NoError(t, err)

	assert.Equal(t, "final scan.tiff", renamed.Name)
	assert.Regexp(t, `^uploads/\d+-final_scan\.tiff$`, renamed.Path)
	assert.Equal(t, "image/tiff", renamed.ContentType)
	assert.NotEqual(t, oldPath, renamed.Path)

	// Record follows the file.
	stored, err := repo.FindByID(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, renamed.Path, stored.Path)

	// Old path is gone, new path serves the same content.
	_, err = store.Read(oldPath)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	content, err := store.Read(renamed.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("body"), content)
}

func TestServiceDelete(t *testing.T) {
	svc, repo, store := newTestService(t)

	doc, err := svc.Upload(&UploadRequest{Name: "gone.pdf", Content: []byte("x")})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(doc.ID))

	_, err = repo.FindByID(doc.ID)
	assert.Error(t, err)
	_, err = store.Read(doc.Path)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
