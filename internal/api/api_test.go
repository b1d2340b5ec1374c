package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/marbeck/flashdeck/internal/deckservice"
	"github.com/marbeck/flashdeck/internal/models"
	"github.com/marbeck/flashdeck/internal/session"
	"github.com/marbeck/flashdeck/internal/study"
	"github.com/marbeck/flashdeck/internal/testutil"
)

// testEnv sets up a temp store, deck service, session manager, and
// router for testing. The deck collection starts empty (no starter
// seeding) so tests control it fully.
func testEnv(t *testing.T) (*deckservice.Service, http.Handler, string) {
	t.Helper()

	decks := testutil.TestDecks(t)
	sessions := session.NewManager(decks, nil, study.Config{}, testutil.Logger())

	mediaDir := t.TempDir()
	router := NewRouter(decks, sessions, nil, mediaDir)
	return decks, router, mediaDir
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateAndListDecks(t *testing.T) {
	_, router, _ := testEnv(t)

	w := doJSON(t, router, http.MethodPost, "/decks", models.Deck{
		Name:  "Animals",
		Cards: []models.Card{{Front: "cat", Back: "meow"}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created models.Deck
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.ID == "" {
		t.Error("no id assigned")
	}

	w = doJSON(t, router, http.MethodGet, "/decks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var decks []models.Deck
	if err := json.Unmarshal(w.Body.Bytes(), &decks); err != nil {
		t.Fatalf("list is not a JSON array: %v", err)
	}
	if len(decks) != 1 || decks[0].Name != "Animals" {
		t.Errorf("decks = %+v", decks)
	}
}

func TestCreateDeck_DropsBlankCards(t *testing.T) {
	_, router, _ := testEnv(t)

	w := doJSON(t, router, http.MethodPost, "/decks", models.Deck{
		Name:  "Words",
		Cards: []models.Card{{Front: "cat"}, {Front: ""}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	var created models.Deck
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if len(created.Cards) != 1 || created.Cards[0].Front != "cat" {
		t.Errorf("cards = %+v, want only cat", created.Cards)
	}
}

func TestCreateDeck_EmptyNameGetsPlaceholder(t *testing.T) {
	_, router, _ := testEnv(t)

	w := doJSON(t, router, http.MethodPost, "/decks", models.Deck{})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	var created models.Deck
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.Name == "" {
		t.Error("empty name not replaced")
	}
}

func TestReplaceDeck(t *testing.T) {
	_, router, _ := testEnv(t)

	w := doJSON(t, router, http.MethodPost, "/decks", models.Deck{Name: "Before"})
	var created models.Deck
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	w = doJSON(t, router, http.MethodPut, "/decks/"+created.ID, models.Deck{
		Name:  "After",
		Cards: []models.Card{{Front: "new"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("replace status = %d, body = %s", w.Code, w.Body.String())
	}
	var replaced models.Deck
	_ = json.Unmarshal(w.Body.Bytes(), &replaced)
	if replaced.ID != created.ID || replaced.Name != "After" {
		t.Errorf("replaced = %+v", replaced)
	}

	w = doJSON(t, router, http.MethodPut, "/decks/ghost", models.Deck{Name: "X"})
	if w.Code != http.StatusNotFound {
		t.Errorf("replace unknown = %d, want 404", w.Code)
	}
}

func TestDeleteDeck(t *testing.T) {
	_, router, _ := testEnv(t)

	w := doJSON(t, router, http.MethodPost, "/decks", models.Deck{Name: "Bye"})
	var created models.Deck
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	w = doJSON(t, router, http.MethodDelete, "/decks/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/decks/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
	w = doJSON(t, router, http.MethodDelete, "/decks/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("double delete = %d, want 404", w.Code)
	}
}

func TestCreateDeck_InvalidJSON(t *testing.T) {
	_, router, _ := testEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/decks", bytes.NewReader([]byte("{nope")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func createDeck(t *testing.T, router http.Handler, cards int) models.Deck {
	t.Helper()
	d := models.Deck{Name: "Session deck"}
	for i := 0; i < cards; i++ {
		d.Cards = append(d.Cards, models.Card{Front: string(rune('A' + i))})
	}
	w := doJSON(t, router, http.MethodPost, "/decks", d)
	if w.Code != http.StatusCreated {
		t.Fatalf("create deck = %d", w.Code)
	}
	var created models.Deck
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	return created
}

func TestPracticeSessionFlow(t *testing.T) {
	_, router, _ := testEnv(t)
	d := createDeck(t, router, 3)

	w := doJSON(t, router, http.MethodPost, "/sessions/practice", StartSessionRequest{DeckID: d.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("start = %d, body = %s", w.Code, w.Body.String())
	}
	var st session.State
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.Mode != session.ModePractice || st.Card == nil || st.Card.Total != 3 {
		t.Fatalf("state = %+v", st)
	}

	w = doJSON(t, router, http.MethodPost, "/sessions/"+st.ID+"/reveal", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reveal = %d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.Card == nil || !st.Card.ShowBack {
		t.Error("back not shown after reveal")
	}

	w = doJSON(t, router, http.MethodPost, "/sessions/"+st.ID+"/advance", AnswerRequest{Correct: true})
	if w.Code != http.StatusOK {
		t.Fatalf("advance = %d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.Stats == nil || st.Stats.Seen != 1 || st.Stats.Correct != 1 {
		t.Errorf("stats = %+v", st.Stats)
	}

	w = doJSON(t, router, http.MethodPost, "/sessions/"+st.ID+"/shuffle", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("shuffle = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, "/sessions/"+st.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("end = %d, want 204", w.Code)
	}
}

func TestTestSessionFlow(t *testing.T) {
	_, router, _ := testEnv(t)
	d := createDeck(t, router, 2)

	w := doJSON(t, router, http.MethodPost, "/sessions/test", StartSessionRequest{DeckID: d.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("start = %d", w.Code)
	}
	var st session.State
	_ = json.Unmarshal(w.Body.Bytes(), &st)

	w = doJSON(t, router, http.MethodPost, "/sessions/"+st.ID+"/answer", AnswerRequest{Correct: true})
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.Phase != "in_progress" {
		t.Fatalf("phase = %q", st.Phase)
	}

	w = doJSON(t, router, http.MethodPost, "/sessions/"+st.ID+"/answer", AnswerRequest{Correct: false})
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if st.Phase != "results" {
		t.Fatalf("phase = %q, want results", st.Phase)
	}
	if st.Score == nil || st.Score.Correct != 1 || st.Score.Total != 2 {
		t.Errorf("score = %+v", st.Score)
	}
}

func TestSessionWrongMode(t *testing.T) {
	_, router, _ := testEnv(t)
	d := createDeck(t, router, 2)

	w := doJSON(t, router, http.MethodPost, "/sessions/test", StartSessionRequest{DeckID: d.ID})
	var st session.State
	_ = json.Unmarshal(w.Body.Bytes(), &st)

	w = doJSON(t, router, http.MethodPost, "/sessions/"+st.ID+"/advance", AnswerRequest{Correct: true})
	if w.Code != http.StatusConflict {
		t.Errorf("advance on test = %d, want 409", w.Code)
	}
}

func TestSession_UnknownDeck(t *testing.T) {
	_, router, _ := testEnv(t)
	w := doJSON(t, router, http.MethodPost, "/sessions/practice", StartSessionRequest{DeckID: "ghost"})
	if w.Code != http.StatusNotFound {
		t.Errorf("start = %d, want 404", w.Code)
	}
}

func TestSession_MissingDeckID(t *testing.T) {
	_, router, _ := testEnv(t)
	w := doJSON(t, router, http.MethodPost, "/sessions/practice", StartSessionRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("start = %d, want 400", w.Code)
	}
}

func TestSession_NotFound(t *testing.T) {
	_, router, _ := testEnv(t)
	w := doJSON(t, router, http.MethodGet, "/sessions/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get = %d, want 404", w.Code)
	}
}

func multipartUpload(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestMediaUpload(t *testing.T) {
	_, router, mediaDir := testEnv(t)

	body, ctype := multipartUpload(t, "file", "cat.png", "image/png", []byte("pngdata"))
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}

	var resp MediaUploadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Filename == "" || resp.Filename == "cat.png" {
		t.Errorf("filename = %q, want a generated name", resp.Filename)
	}
	if resp.Size != int64(len("pngdata")) {
		t.Errorf("size = %d", resp.Size)
	}
	if resp.URL != "/media/"+resp.Filename {
		t.Errorf("url = %q", resp.URL)
	}

	stored, err := os.ReadFile(filepath.Join(mediaDir, resp.Filename))
	if err != nil {
		t.Fatalf("stored file: %v", err)
	}
	if string(stored) != "pngdata" {
		t.Errorf("stored content = %q", stored)
	}
}

func TestMediaUpload_MissingFile(t *testing.T) {
	_, router, _ := testEnv(t)

	body, ctype := multipartUpload(t, "wrongfield", "cat.png", "image/png", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("upload without file = %d, want 400", w.Code)
	}
}

func TestMediaUpload_RejectsNonImage(t *testing.T) {
	_, router, _ := testEnv(t)

	body, ctype := multipartUpload(t, "file", "notes.txt", "text/plain", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/media", body)
	req.Header.Set("Content-Type", ctype)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-image upload = %d, want 400", w.Code)
	}
}

func TestMediaServe(t *testing.T) {
	_, _, mediaDir := testEnv(t)

	if err := os.WriteFile(filepath.Join(mediaDir, "pic.png"), []byte("imgbytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	media := NewMediaRouter(mediaDir)

	req := httptest.NewRequest(http.MethodGet, "/pic.png", nil)
	w := httptest.NewRecorder()
	media.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("serve = %d", w.Code)
	}
	if w.Body.String() != "imgbytes" {
		t.Errorf("body = %q", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/missing.png", nil)
	w = httptest.NewRecorder()
	media.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing file = %d, want 404", w.Code)
	}
}

func TestDeckPersistsAcrossServices(t *testing.T) {
	decks, router, _ := testEnv(t)
	d := createDeck(t, router, 1)
	decks.Flush()

	got, err := decks.Get(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Session deck" {
		t.Errorf("name = %q", got.Name)
	}
}
