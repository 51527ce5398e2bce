package storage

import (
	"path/filepath"
	"testing"

	"github.com/tunetrace/tunetrace/pkg/models"
)

func setupClient(t *testing.T) *Client {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test_tunetrace.sqlite3")
	client, err := NewClient(dbPath)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func sampleRecord() *models.ScanRecord {
	return &models.ScanRecord{
		ID:              "11111111-2222-3333-4444-555555555555",
		Source:          "stream.wav",
		DataOffset:      0,
		SampleRate:      11025,
		FingerprintRate: 11025,
		Duration:        10,
		Tags: []models.Tag{
			{DataPosition: 2900, MostSimilarFramePosition: 7, Score: 50, Similarity: 0.5, Description: "[1, -2]"},
			{DataPosition: 4100, MostSimilarFramePosition: 3, Score: 80, Similarity: 0.8, Description: "[3, 4]"},
		},
	}
}

func TestSaveAndGetScan(t *testing.T) {
	client := setupClient(t)
	rec := sampleRecord()

	if err := client.SaveScan(rec); err != nil {
		t.Fatalf("SaveScan failed: %v", err)
	}

	got, err := client.GetScan(rec.ID)
	if err != nil {
		t.Fatalf("GetScan failed: %v", err)
	}
	if got.Source != "stream.wav" || got.Duration != 10 || got.FingerprintRate != 11025 {
		t.Errorf("scan fields mismatch: %+v", got)
	}
	if got.TagCount != 2 || len(got.Tags) != 2 {
		t.Fatalf("got %d tags (count %d), want 2", len(got.Tags), got.TagCount)
	}
	if got.Tags[0].DataPosition != 2900 || got.Tags[1].DataPosition != 4100 {
		t.Errorf("tags not ordered by position: %+v", got.Tags)
	}
	if got.Tags[1].Description != "[3, 4]" {
		t.Errorf("payload mismatch: %q", got.Tags[1].Description)
	}
}

func TestListScans(t *testing.T) {
	client := setupClient(t)
	if err := client.SaveScan(sampleRecord()); err != nil {
		t.Fatalf("SaveScan failed: %v", err)
	}

	scans, err := client.ListScans()
	if err != nil {
		t.Fatalf("ListScans failed: %v", err)
	}
	if len(scans) != 1 {
		t.Fatalf("got %d scans, want 1", len(scans))
	}
	if scans[0].TagCount != 2 {
		t.Errorf("tag count %d, want 2", scans[0].TagCount)
	}
	if scans[0].CreatedAt.IsZero() {
		t.Error("created-at not set")
	}
}

func TestDeleteScan(t *testing.T) {
	client := setupClient(t)
	rec := sampleRecord()
	if err := client.SaveScan(rec); err != nil {
		t.Fatalf("SaveScan failed: %v", err)
	}

	if err := client.DeleteScan(rec.ID); err != nil {
		t.Fatalf("DeleteScan failed: %v", err)
	}
	if _, err := client.GetScan(rec.ID); err == nil {
		t.Fatal("expected error for deleted scan")
	}

	var tagCount int64
	client.DB.Model(&Tag{}).Where("scan_id = ?", rec.ID).Count(&tagCount)
	if tagCount != 0 {
		t.Errorf("expected tags deleted with scan, found %d", tagCount)
	}
}

func TestSaveScanNoTags(t *testing.T) {
	client := setupClient(t)
	rec := sampleRecord()
	rec.ID = "66666666-7777-8888-9999-000000000000"
	rec.Tags = nil

	if err := client.SaveScan(rec); err != nil {
		t.Fatalf("SaveScan failed: %v", err)
	}
	got, err := client.GetScan(rec.ID)
	if err != nil {
		t.Fatalf("GetScan failed: %v", err)
	}
	if got.TagCount != 0 || len(got.Tags) != 0 {
		t.Errorf("expected no tags, got %+v", got.Tags)
	}
}
