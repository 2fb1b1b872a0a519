package extractor

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/aleksworks/docintel/internal/core/domain"
)

type storageFake struct {
	files map[string][]byte
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.files[key] = content
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	content, ok := f.files[key]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (f *storageFake) Delete(_ context.Context, key string) error {
	delete(f.files, key)
	return nil
}

func TestExtractBytes_plain(t *testing.T) {
	got, err := ExtractBytes([]byte("Hello world\nLine 2"), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Hello world\nLine 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	got, err := ExtractBytes([]byte("hello\x80world"), ".md")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "hello�world" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_unknownExtensionFallsBackToPlain(t *testing.T) {
	got, err := ExtractBytes([]byte("raw content"), ".xyz")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "raw content" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Title\nValue 1\tValue 2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractDispatchesOnFilenameExtension(t *testing.T) {
	storage := &storageFake{files: map[string][]byte{
		"doc-1_notes.txt": []byte("  plain notes  "),
	}}
	e := New(storage)

	got, err := e.Extract(context.Background(), &domain.Document{
		Filename:    "notes.TXT",
		StoragePath: "doc-1_notes.txt",
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "plain notes" {
		t.Errorf("got %q, want trimmed text", got)
	}
}

func TestExtractMissingFile(t *testing.T) {
	e := New(&storageFake{files: map[string][]byte{}})
	_, err := e.Extract(context.Background(), &domain.Document{
		Filename:    "gone.txt",
		StoragePath: "missing",
	})
	if err == nil {
		t.Error("expected error for missing stored file")
	}
}
