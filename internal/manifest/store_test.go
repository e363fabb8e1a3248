package manifest_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"clipset/internal/manifest"
	"clipset/internal/testsupport"
)

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenManifest(t, cfg)
	ctx := context.Background()

	run, err := store.BeginRun(ctx, "https://example.test/UCF101.zip", 42, 10)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if len(run.ID) != 36 || run.Status != manifest.RunRunning {
		t.Fatalf("unexpected run %+v", run)
	}

	if err := store.FinishRun(ctx, run.ID, errors.New("network down")); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Status != manifest.RunFailed || got.ErrorMessage != "network down" || got.FinishedAt.IsZero() {
		t.Fatalf("unexpected finished run %+v", got)
	}
	if got.Seed != 42 || got.NumClasses != 10 {
		t.Fatalf("run parameters not persisted: %+v", got)
	}

	missing, err := store.GetRun(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil run for unknown id, got %+v err=%v", missing, err)
	}
	if err := store.FinishRun(ctx, "nope", nil); err == nil {
		t.Fatal("expected error finishing unknown run")
	}
}

func TestSplitRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenManifest(t, cfg)
	ctx := context.Background()

	first, err := store.BeginRun(ctx, "u", 1, 2)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	train, err := store.RecordSplit(ctx, manifest.SplitRecord{
		RunID: first.ID, Split: "train", Directory: "/data/train", Requested: 6, Planned: 12, PlannedBytes: 1 << 20,
	})
	if err != nil {
		t.Fatalf("RecordSplit: %v", err)
	}
	if train.ID == 0 || train.Status != manifest.SplitPending {
		t.Fatalf("unexpected record %+v", train)
	}
	if err := store.UpdateSplit(ctx, train.ID, manifest.SplitFailed, 5, errors.New("extraction error")); err != nil {
		t.Fatalf("UpdateSplit: %v", err)
	}

	second, err := store.BeginRun(ctx, "u", 1, 2)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if _, err := store.RecordSplit(ctx, manifest.SplitRecord{RunID: second.ID, Split: "train", Status: manifest.SplitSkipped}); err != nil {
		t.Fatalf("RecordSplit skipped: %v", err)
	}
	if _, err := store.RecordSplit(ctx, manifest.SplitRecord{RunID: second.ID, Split: "val", Requested: 2, Planned: 4, Status: manifest.SplitComplete, Downloaded: 4}); err != nil {
		t.Fatalf("RecordSplit val: %v", err)
	}

	latest, err := store.LatestSplits(ctx)
	if err != nil {
		t.Fatalf("LatestSplits: %v", err)
	}
	if len(latest) != 2 || latest[0].Split != "train" || latest[0].Status != manifest.SplitSkipped || latest[1].Split != "val" {
		t.Fatalf("unexpected latest splits %+v", latest)
	}

	download, err := store.LatestDownload(ctx, "train")
	if err != nil {
		t.Fatalf("LatestDownload: %v", err)
	}
	if download == nil || download.Downloaded != 5 || download.Planned != 12 || !download.Truncated() {
		t.Fatalf("expected the failed train download, got %+v", download)
	}
	if download.ErrorMessage != "extraction error" {
		t.Fatalf("unexpected error message %q", download.ErrorMessage)
	}
	none, err := store.LatestDownload(ctx, "test")
	if err != nil || none != nil {
		t.Fatalf("expected no test download, got %+v err=%v", none, err)
	}

	recs, err := store.SplitsForRun(ctx, second.ID)
	if err != nil || len(recs) != 2 {
		t.Fatalf("SplitsForRun: %v %+v", err, recs)
	}
	runs, err := store.ListRuns(ctx, 1)
	if err != nil || len(runs) != 1 || runs[0].ID != second.ID {
		t.Fatalf("ListRuns: %v %+v", err, runs)
	}

	if _, err := store.RecordSplit(ctx, manifest.SplitRecord{Split: "x"}); err == nil {
		t.Fatal("expected error without run id")
	}
}

func TestAbandonRunningClosesInterruptedRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenManifest(t, cfg)
	ctx := context.Background()

	done, err := store.BeginRun(ctx, "u", 1, 2)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := store.FinishRun(ctx, done.ID, nil); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	killed, err := store.BeginRun(ctx, "u", 1, 2)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	rec, err := store.RecordSplit(ctx, manifest.SplitRecord{RunID: killed.ID, Split: "train", Planned: 4})
	if err != nil {
		t.Fatalf("RecordSplit: %v", err)
	}
	if err := store.UpdateSplit(ctx, rec.ID, manifest.SplitPending, 2, nil); err != nil {
		t.Fatalf("UpdateSplit: %v", err)
	}

	n, err := store.AbandonRunning(ctx)
	if err != nil || n != 1 {
		t.Fatalf("AbandonRunning: n=%d err=%v", n, err)
	}
	got, err := store.GetRun(ctx, killed.ID)
	if err != nil || got.Status != manifest.RunFailed || got.ErrorMessage == "" || got.FinishedAt.IsZero() {
		t.Fatalf("expected interrupted run to be failed, got %+v err=%v", got, err)
	}
	if kept, _ := store.GetRun(ctx, done.ID); kept.Status != manifest.RunComplete {
		t.Fatalf("finished run must keep its status, got %+v", kept)
	}
	recs, err := store.SplitsForRun(ctx, killed.ID)
	if err != nil || len(recs) != 1 || recs[0].Status != manifest.SplitFailed || !recs[0].Truncated() {
		t.Fatalf("expected failed split record, got %+v err=%v", recs, err)
	}
}

func TestSplitRecordsRequireKnownRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenManifest(t, cfg)
	ctx := context.Background()

	// Every pooled connection enforces foreign keys, not just the first.
	for range 3 {
		if _, err := store.RecordSplit(ctx, manifest.SplitRecord{RunID: "no-such-run", Split: "train"}); err == nil {
			t.Fatal("expected foreign key violation for unknown run")
		}
	}
	if !manifest.Exists(cfg) {
		t.Fatal("expected manifest file after open")
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenManifest(t, cfg)
	store.Close()

	db, err := sql.Open("sqlite", cfg.ManifestPath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := manifest.Open(cfg); !errors.Is(err, manifest.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
