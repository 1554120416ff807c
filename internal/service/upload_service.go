package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/stemsi/guidedwork-backend/internal/config"
)

// Sentinel errors for uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

const pdfMIME = "application/pdf"

// UploadService stores uploaded assignment PDFs on local disk.
type UploadService struct {
	dir      string
	maxBytes int64
}

// NewUploadService creates a new UploadService.
func NewUploadService(cfg *config.Config) *UploadService {
	return &UploadService{dir: cfg.UploadDir, maxBytes: cfg.MaxUploadBytes}
}

// MaxBytes is the largest accepted file.
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// StoredUpload is an accepted upload on disk.
type StoredUpload struct {
	Path string
	// Sniffed is the content type detected from the file bytes.
	Sniffed string
}

// IsPDF reports whether the stored bytes look like a PDF.
func (u *StoredUpload) IsPDF() bool {
	return mimetype.EqualsAny(u.Sniffed, pdfMIME)
}

// Save validates an uploaded file declared as PDF and writes it under a UUID
// filename. Only the declared content type and size are enforced; content
// that does not sniff as PDF is still stored and reported via Sniffed.
func (s *UploadService) Save(file multipart.File, header *multipart.FileHeader) (*StoredUpload, error) {
	declared := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != pdfMIME {
		return nil, fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedFileType, declared, pdfMIME)
	}

	if header.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.maxBytes)
	}

	sniffed, err := mimetype.DetectReader(file)
	if err != nil {
		return nil, fmt.Errorf("sniff upload: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	destPath := filepath.Join(s.dir, uuid.NewString()+".pdf")
	dst, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, s.maxBytes+1)); err != nil {
		_ = os.Remove(destPath)
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &StoredUpload{Path: destPath, Sniffed: sniffed.String()}, nil
}
