package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"clipset/internal/config"
	"clipset/internal/testsupport"
	"clipset/internal/video"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	server     *testsupport.ZipServer
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	var members []testsupport.ZipMember
	for _, class := range []string{"Archery", "Bowling", "Cricket"} {
		for i := range 5 {
			name := "UCF101/" + class + "/" + testsupport.ClipName(class, i+1)
			members = append(members, testsupport.ZipMember{Name: name, Data: []byte(name)})
		}
	}
	srv := testsupport.ServeZip(t, testsupport.BuildZip(t, members...))

	cfg := testsupport.NewConfig(t,
		testsupport.WithArchiveURL(srv.URL),
		testsupport.WithStubbedBinaries(),
		testsupport.WithSplits(
			config.Split{Name: "train", Count: 3},
			config.Split{Name: "val", Count: 1},
			config.Split{Name: "test", Count: 1},
		),
	)
	cfg.Dataset.NumClasses = 2
	cfg.Dataset.Seed = 4242
	cfg.Logging.Level = "error"
	cfg.Sampler.NFrames = 3
	cfg.Sampler.Height = 4
	cfg.Sampler.Width = 4
	cfg.Sampler.FrameStep = 2
	cfg.Sampler.BatchSize = 2

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, server: srv}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack string, needles ...string) {
	t.Helper()
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
		}
	}
}

// useMemoryDecoder serves synthetic frames for every video under root.
func useMemoryDecoder(t *testing.T, root string) {
	t.Helper()
	decoder := video.NewMemoryDecoder()
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".avi") {
			decoder.Add(path, video.IndexedFrames(10, 6, 4))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	previous := newDecoder
	newDecoder = func(*config.Config, *slog.Logger) video.Decoder { return decoder }
	t.Cleanup(func() { newDecoder = previous })
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid", "train=3, val=1, test=1", "whole class", "4242", "not created")
	if _, err := os.Stat(env.cfg.ManifestPath()); err == nil {
		t.Fatal("validate must not create the manifest")
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	var shown config.Config
	if err := toml.Unmarshal([]byte(out), &shown); err != nil {
		t.Fatalf("config show output is not TOML: %v\n%s", err, out)
	}
	if shown.Archive.URL != env.server.URL || shown.Dataset.Seed != 4242 || len(shown.Dataset.Splits) != 3 {
		t.Fatalf("unexpected effective config %+v", shown)
	}

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestIndexCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"index"}, env.configPath)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	requireContains(t, out, "Archery", "Bowling", "Cricket", "Total", "3 classes")

	out, _, err = runCLI(t, []string{"index", "--entries"}, env.configPath)
	if err != nil {
		t.Fatalf("index --entries: %v", err)
	}
	requireContains(t, out, "UCF101/Bowling/v_Bowling_g03_c01.avi")
}

func TestBuildStatsAndIterate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"build", "--no-progress"}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	requireContains(t, out, "train", env.cfg.SplitDir("val"))

	entries, err := os.ReadDir(filepath.Join(env.cfg.SplitDir("train"), "Archery"))
	if err != nil || len(entries) != 3 {
		t.Fatalf("expected 3 train files for Archery, got %d err=%v", len(entries), err)
	}
	trainFile := filepath.Join(env.cfg.SplitDir("train"), "Archery", entries[0].Name())

	plotPath := filepath.Join(t.TempDir(), "classes.png")
	out, _, err = runCLI(t, []string{"stats", "--plot", plotPath}, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "complete", "6/6", "Seed", "4242", "Wrote class distribution plot")
	if info, err := os.Stat(plotPath); err != nil || info.Size() == 0 {
		t.Fatalf("expected plot at %s: %v", plotPath, err)
	}

	useMemoryDecoder(t, env.cfg.Paths.DownloadDir)

	out, _, err = runCLI(t, []string{"sample", trainFile, "--seed", "3", "--width", "6"}, env.configPath)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	requireContains(t, out, "Shape:         (3, 4, 6, 3)", "Source frames: 10", "Padded frames: 0")

	out, _, err = runCLI(t, []string{"iterate", "val"}, env.configPath)
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	requireContains(t, out, "2 samples, 2 classes", "Archery", "Bowling")

	out, _, err = runCLI(t, []string{"iterate", "train", "--training", "--prefetch", "2", "--limit", "4"}, env.configPath)
	if err != nil {
		t.Fatalf("iterate training: %v", err)
	}
	requireContains(t, out, "4 samples")

	out, _, err = runCLI(t, []string{"iterate", "train", "--batches"}, env.configPath)
	if err != nil {
		t.Fatalf("iterate batches: %v", err)
	}
	requireContains(t, out, "(2, 3, 4, 4, 3)", "(2)")

	// A rerun leaves every split alone.
	if _, _, err := runCLI(t, []string{"build", "--no-progress"}, env.configPath); err != nil {
		t.Fatalf("second build: %v", err)
	}
	out, _, err = runCLI(t, []string{"stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats after rerun: %v", err)
	}
	requireContains(t, out, "6/6", "complete")

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status after build: %v", err)
	}
	requireContains(t, out, "Builds", "complete, seed 4242, 2 classes")
}

func TestSampleMissingVideo(t *testing.T) {
	env := setupCLITestEnv(t)
	useMemoryDecoder(t, t.TempDir())
	if _, _, err := runCLI(t, []string{"sample", "/nope/missing.avi"}, env.configPath); err == nil {
		t.Fatal("expected sample of missing video to fail")
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Dependencies", "FFmpeg", "FFprobe", "[OK]", "version 0.0-test", "Builds", "no builds recorded")
}
