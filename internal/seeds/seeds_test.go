package seeds

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marbeck/flashdeck/internal/deckservice"
	"github.com/marbeck/flashdeck/internal/testutil"
)

// seedsTestEnv sets up a seeds dir and an empty deck service.
func seedsTestEnv(t *testing.T) (string, *deckservice.Service) {
	t.Helper()
	return t.TempDir(), testutil.TestDecks(t)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

const animalsYAML = `name: Animals
cards:
  - front: cat
    back: meow
  - front: dog
    back: woof
`

func TestSyncOnce_LoadsSeedFiles(t *testing.T) {
	seedsDir, decks := seedsTestEnv(t)
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(seedsDir, "animals.yaml"), []byte(animalsYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewSyncer(seedsDir, decks, testutil.Logger())
	if err := s.SyncOnce(ctx); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	d, err := decks.Get(ctx, "seed-animals")
	if err != nil {
		t.Fatalf("seed deck not loaded: %v", err)
	}
	if d.Name != "Animals" || len(d.Cards) != 2 {
		t.Errorf("deck = %+v", d)
	}
}

func TestSyncOnce_ExplicitIDWins(t *testing.T) {
	seedsDir, decks := seedsTestEnv(t)
	ctx := context.Background()

	content := "id: my-own-id\nname: Custom\ncards: []\n"
	if err := os.WriteFile(filepath.Join(seedsDir, "whatever.yml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewSyncer(seedsDir, decks, testutil.Logger())
	if err := s.SyncOnce(ctx); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	if _, err := decks.Get(ctx, "my-own-id"); err != nil {
		t.Errorf("explicit id not preserved: %v", err)
	}
}

func TestSyncOnce_MissingDirIsFine(t *testing.T) {
	_, decks := seedsTestEnv(t)
	s := NewSyncer("/nonexistent/seeds", decks, testutil.Logger())
	if err := s.SyncOnce(context.Background()); err != nil {
		t.Errorf("SyncOnce = %v, want nil for missing dir", err)
	}
}

func TestSyncOnce_RerunUpdatesSameDeck(t *testing.T) {
	seedsDir, decks := seedsTestEnv(t)
	ctx := context.Background()
	path := filepath.Join(seedsDir, "animals.yaml")

	_ = os.WriteFile(path, []byte(animalsYAML), 0o644)
	s := NewSyncer(seedsDir, decks, testutil.Logger())
	_ = s.SyncOnce(ctx)

	_ = os.WriteFile(path, []byte("name: Renamed\ncards: []\n"), 0o644)
	_ = s.SyncOnce(ctx)

	all := decks.List(ctx)
	if len(all) != 1 {
		t.Fatalf("decks = %d, want 1", len(all))
	}
	if all[0].Name != "Renamed" {
		t.Errorf("name = %q", all[0].Name)
	}
}

func TestWatch_NewFileLoaded(t *testing.T) {
	seedsDir, decks := seedsTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewSyncer(seedsDir, decks, testutil.Logger())
	go s.Watch(ctx)

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(seedsDir, "new.yaml"), []byte(animalsYAML), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := decks.Get(ctx, "seed-new")
		return err == nil
	}, "new seed file not loaded by watcher")
}

func TestWatch_RemovedFileDropsDeck(t *testing.T) {
	seedsDir, decks := seedsTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(seedsDir, "gone.yaml")
	_ = os.WriteFile(path, []byte(animalsYAML), 0o644)

	s := NewSyncer(seedsDir, decks, testutil.Logger())
	if err := s.SyncOnce(ctx); err != nil {
		t.Fatal(err)
	}
	go s.Watch(ctx)

	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(path)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, err := decks.Get(ctx, "seed-gone")
		return err != nil
	}, "removed seed file still present in collection")
}

func TestWatch_IgnoresNonYAML(t *testing.T) {
	seedsDir, decks := seedsTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewSyncer(seedsDir, decks, testutil.Logger())
	go s.Watch(ctx)

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(seedsDir, "notes.txt"), []byte("not a deck"), 0o644)
	time.Sleep(300 * time.Millisecond)

	if n := len(decks.List(ctx)); n != 0 {
		t.Errorf("decks = %d, want 0", n)
	}
}
