package storage

import (
	"errors"
	"testing"
)

func TestUploadDownloadRoundTrip(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	handle, err := s.Upload("report.xlsx", []byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	if handle != "report.xlsx" {
		t.Errorf("handle = %q, want %q", handle, "report.xlsx")
	}

	data, err := s.Download(handle)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("data = %q", data)
	}
}

func TestUploadReplacesExisting(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Upload("a.json", []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upload("a.json", []byte("v2")); err != nil {
		t.Fatal(err)
	}

	data, err := s.Download("a.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v2" {
		t.Errorf("data = %q, want v2 (last write wins)", data)
	}
}

func TestDownloadMissingHandle(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Download("nope.bin")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUploadStripsPathComponents(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	handle, err := s.Upload("../../etc/passwd", []byte("x"))
	if err != nil {
		t.Fatal(err)
	}
	if handle != "passwd" {
		t.Errorf("handle = %q, want path components stripped", handle)
	}

	if _, err := s.Download("../passwd"); err == nil {
		t.Error("expected error for handle containing path components")
	}
}
