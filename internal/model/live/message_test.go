package live

import (
	"bytes"
	"testing"
)

func TestDecodeSamplePayloadDataURI(t *testing.T) {
	got, err := DecodeSamplePayload("data:image/jpeg;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
}

func TestDecodeSamplePayloadRawBase64(t *testing.T) {
	got, err := DecodeSamplePayload("aGVsbG8=")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
}

func TestDecodeSamplePayloadInvalid(t *testing.T) {
	if _, err := DecodeSamplePayload("not base64!!"); err == nil {
		t.Fatal("expected an error for invalid base64")
	}
}

func TestDecodeSamplePayloadKeepsCommaWithoutScheme(t *testing.T) {
	// Only data: URIs have their prefix stripped; a bare comma is just
	// invalid base64.
	if _, err := DecodeSamplePayload("abc,def"); err == nil {
		t.Fatal("expected an error")
	}
}
