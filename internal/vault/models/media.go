// Package models defines the vault's data model: media records, their sealed
// on-disk shape and the cycle scheduler state.
package models

import "time"

// MediaRecord is one imported photo or video.
type MediaRecord struct {
	// ID is a unique, stable, generator-assigned identifier.
	ID string

	OriginalName string
	MimeType     string
	SizeBytes    int64

	ImportedAt time.Time

	// BlobRef locates the encrypted blob in blob storage.
	BlobRef string
	// Nonce is the base nonce the blob was encrypted with.
	Nonce []byte

	// ThumbRef locates an optional thumbnail blob; empty when absent.
	ThumbRef string

	// ViewedAt is set when the item is consumed; nil until then.
	ViewedAt *time.Time
}

// MediaMeta holds the descriptive fields of a MediaRecord that are sealed
// with the catalog key before they reach the database.
type MediaMeta struct {
	OriginalName string `json:"original_name"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
}

// MediaRow is the persisted shape of a MediaRecord. Meta is AEAD ciphertext
// of a JSON-encoded MediaMeta and MetaNonce its nonce.
type MediaRow struct {
	ID         string
	ImportedAt time.Time
	BlobRef    string
	Nonce      []byte
	ThumbRef   string
	ViewedAt   *time.Time
	Meta       []byte
	MetaNonce  []byte
}

// Meta returns the descriptive fields of r.
func (r *MediaRecord) Meta() MediaMeta {
	return MediaMeta{OriginalName: r.OriginalName, MimeType: r.MimeType, SizeBytes: r.SizeBytes}
}
