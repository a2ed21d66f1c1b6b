// Package uploads stores multipart file uploads under the server's upload
// directory, mirroring the original deployment layout: files live in
// {dir}/{subdir}/ and are served statically under /uploads/.
package uploads

import (
	"fmt"
	"io"
	"log"
	"math/rand"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Kind selects the allowed extensions for an upload.
type Kind int

const (
	// Image uploads: profile pictures.
	Image Kind = iota
	// GalleryImage uploads additionally accept GIFs: animal photos, report
	// evidence, event banners.
	GalleryImage
	// Document uploads also accept PDFs: donation receipts, volunteer papers.
	Document
)

var allowedExts = map[Kind]map[string]struct{}{
	Image:        {".jpeg": {}, ".jpg": {}, ".png": {}},
	GalleryImage: {".jpeg": {}, ".jpg": {}, ".png": {}, ".gif": {}},
	Document:     {".jpeg": {}, ".jpg": {}, ".png": {}, ".pdf": {}},
}

var kindMessage = map[Kind]string{
	Image:        "Apenas arquivos de imagem (jpeg, jpg, png) são permitidos",
	GalleryImage: "Apenas imagens são permitidas (jpeg, jpg, png, gif)",
	Document:     "Apenas imagens e PDFs são permitidos (jpeg, jpg, png, pdf)",
}

// FieldError is a validation failure tagged to the form field it came from,
// so handlers can answer 400 with the field name.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Saver writes validated uploads below Dir. MaxSize is inclusive: a file of
// exactly MaxSize bytes is accepted.
type Saver struct {
	Dir     string
	MaxSize int64
}

// Save validates one file header and writes it to {Dir}/{subdir}/ under a
// collision-resistant name ({prefix}-{millis}-{rand}{ext}). It returns the
// relative URL path recorded in the database, e.g.
// "/uploads/profiles/abc-1712345-987654321.png".
func (s *Saver) Save(fh *multipart.FileHeader, kind Kind, field, subdir, prefix string) (string, error) {
	if fh.Size > s.MaxSize {
		return "", &FieldError{Field: field, Message: fmt.Sprintf("Arquivo excede o tamanho máximo de %dMB", s.MaxSize/(1024*1024))}
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := allowedExts[kind][ext]; !ok {
		return "", &FieldError{Field: field, Message: kindMessage[kind]}
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	destDir := filepath.Join(s.Dir, subdir)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%s-%d-%d%s", prefix, time.Now().UnixMilli(), rand.Intn(1_000_000_000), ext)
	dst, err := os.Create(filepath.Join(destDir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}

	return "/uploads/" + subdir + "/" + name, nil
}

// SaveAll saves up to max files from the given headers. On a validation
// failure nothing already written is kept.
func (s *Saver) SaveAll(fhs []*multipart.FileHeader, kind Kind, field, subdir, prefix string, max int) ([]string, error) {
	if len(fhs) > max {
		return nil, &FieldError{Field: field, Message: fmt.Sprintf("Máximo de %d arquivos por envio", max)}
	}

	paths := make([]string, 0, len(fhs))
	for _, fh := range fhs {
		path, err := s.Save(fh, kind, field, subdir, prefix)
		if err != nil {
			for _, p := range paths {
				s.Delete(p)
			}
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Delete removes a previously saved file given its relative URL path.
// Failures are logged only: superseded files must never fail the request
// that replaced them.
func (s *Saver) Delete(relPath string) {
	trimmed, ok := strings.CutPrefix(relPath, "/uploads/")
	if !ok || trimmed == "" {
		return
	}
	full := filepath.Join(s.Dir, filepath.FromSlash(trimmed))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		log.Printf("uploads: failed to delete %s: %v", full, err)
	}
}
