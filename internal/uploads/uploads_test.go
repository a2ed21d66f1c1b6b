package uploads

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// fileHeader builds a real *multipart.FileHeader by writing a multipart body
// and parsing it back, the same way the handlers receive uploads.
func fileHeader(t *testing.T, filename string, size int) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(bytes.Repeat([]byte{0xAB}, size)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parse multipart form: %v", err)
	}
	return req.MultipartForm.File["file"][0]
}

func newSaver(t *testing.T) *Saver {
	t.Helper()
	return &Saver{Dir: t.TempDir(), MaxSize: 5 * 1024 * 1024}
}

func TestSave_AcceptsExactlyMaxSize(t *testing.T) {
	s := newSaver(t)
	fh := fileHeader(t, "photo.jpg", int(s.MaxSize))

	path, err := s.Save(fh, Image, "profileImage", "profiles", "profile")
	if err != nil {
		t.Fatalf("file of exactly MaxSize should be accepted, got: %v", err)
	}
	if !strings.HasPrefix(path, "/uploads/profiles/") {
		t.Errorf("unexpected path: %q", path)
	}
}

func TestSave_RejectsOneByteOverMax(t *testing.T) {
	s := newSaver(t)
	fh := fileHeader(t, "photo.jpg", int(s.MaxSize)+1)

	_, err := s.Save(fh, Image, "profileImage", "profiles", "profile")
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got: %v", err)
	}
	if fieldErr.Field != "profileImage" {
		t.Errorf("expected error tagged to profileImage, got %q", fieldErr.Field)
	}
}

func TestSave_RejectsDisallowedExtension(t *testing.T) {
	s := newSaver(t)
	fh := fileHeader(t, "virus.exe", 128)

	_, err := s.Save(fh, GalleryImage, "images", "animals", "animal")
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError for .exe, got: %v", err)
	}
}

// TestSave_GifOnlyInGalleries verifies the kind split: animal/report/event
// galleries take GIFs, profile pictures do not.
func TestSave_GifOnlyInGalleries(t *testing.T) {
	s := newSaver(t)

	if _, err := s.Save(fileHeader(t, "brincando.gif", 128), GalleryImage, "images", "animals", "animal"); err != nil {
		t.Errorf("gif should be accepted in a gallery, got: %v", err)
	}

	_, err := s.Save(fileHeader(t, "avatar.gif", 128), Image, "profileImage", "profiles", "profile")
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("gif should be rejected as a profile image, got: %v", err)
	}
	if fieldErr.Field != "profileImage" {
		t.Errorf("expected error tagged to profileImage, got %q", fieldErr.Field)
	}
}

func TestSave_PDFOnlyForDocuments(t *testing.T) {
	s := newSaver(t)

	if _, err := s.Save(fileHeader(t, "receipt.pdf", 256), Document, "receipt", "donations", "receipt"); err != nil {
		t.Errorf("pdf should be accepted as a document, got: %v", err)
	}

	_, err := s.Save(fileHeader(t, "receipt.pdf", 256), Image, "images", "animals", "animal")
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Errorf("pdf should be rejected as an image, got: %v", err)
	}
}

func TestSave_NamePatternAndFileOnDisk(t *testing.T) {
	s := newSaver(t)
	fh := fileHeader(t, "FOTO.PNG", 64)

	path, err := s.Save(fh, Image, "images", "animals", "animal")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	// animal-{millis}-{rand}.png, extension lowercased
	pattern := regexp.MustCompile(`^/uploads/animals/animal-\d+-\d+\.png$`)
	if !pattern.MatchString(path) {
		t.Errorf("path %q does not match the naming pattern", path)
	}

	onDisk := filepath.Join(s.Dir, strings.TrimPrefix(path, "/uploads/"))
	info, err := os.Stat(onDisk)
	if err != nil {
		t.Fatalf("saved file missing on disk: %v", err)
	}
	if info.Size() != 64 {
		t.Errorf("expected 64 bytes on disk, got %d", info.Size())
	}
}

func TestSaveAll_TooManyFiles(t *testing.T) {
	s := newSaver(t)
	fhs := make([]*multipart.FileHeader, 6)
	for i := range fhs {
		fhs[i] = fileHeader(t, "img.jpg", 16)
	}

	_, err := s.SaveAll(fhs, Image, "images", "animals", "animal", 5)
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError for too many files, got: %v", err)
	}
}

// TestSaveAll_RollsBackOnFailure verifies that a bad file mid-batch removes
// the files already written.
func TestSaveAll_RollsBackOnFailure(t *testing.T) {
	s := newSaver(t)
	fhs := []*multipart.FileHeader{
		fileHeader(t, "one.jpg", 16),
		fileHeader(t, "two.gif", 16), // rejected
	}

	if _, err := s.SaveAll(fhs, Image, "images", "animals", "animal", 5); err == nil {
		t.Fatal("expected an error from the .gif file")
	}

	entries, err := os.ReadDir(filepath.Join(s.Dir, "animals"))
	if err == nil && len(entries) != 0 {
		t.Errorf("expected no files left behind, found %d", len(entries))
	}
}

func TestDelete_IgnoresPathsOutsideUploads(t *testing.T) {
	s := newSaver(t)

	// Must be a no-op, not a panic or an escape from the upload dir.
	s.Delete("/etc/passwd")
	s.Delete("")
	s.Delete("/uploads/")
}
