package gdrive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/manthysbr/connectorseed/internal/adapters/scratch"
	"github.com/manthysbr/connectorseed/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

var (
	nameClause   = regexp.MustCompile(`name = '((?:[^'\\]|\\.)*)'`)
	parentClause = regexp.MustCompile(`'([^']*)' in parents`)
)

type fakeFile struct {
	ID, Name, Parent, MimeType string
	Body                       []byte
}

type fakeDrive struct {
	mu      sync.Mutex
	files   []*fakeFile
	creates int
	deny    bool
}

func (f *fakeDrive) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	if f.deny {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"code":401,"message":"Invalid Credentials","errors":[{"reason":"authError","message":"Invalid Credentials"}]}}`)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/files":
		q := r.URL.Query().Get("q")
		name := strings.ReplaceAll(nameClause.FindStringSubmatch(q)[1], `\'`, `'`)
		parent := parentClause.FindStringSubmatch(q)[1]
		out := []map[string]string{}
		for _, file := range f.files {
			if file.Name == name && file.Parent == parent {
				out = append(out, map[string]string{"id": file.ID, "name": file.Name})
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"files": out})

	case r.Method == http.MethodPost && r.URL.Path == "/files":
		f.creates++
		var meta struct {
			Name     string   `json:"name"`
			MimeType string   `json:"mimeType"`
			Parents  []string `json:"parents"`
		}
		json.NewDecoder(r.Body).Decode(&meta)
		parent := "root"
		if len(meta.Parents) > 0 {
			parent = meta.Parents[0]
		}
		file := &fakeFile{ID: fmt.Sprintf("id%d", len(f.files)+1), Name: meta.Name, Parent: parent, MimeType: meta.MimeType}
		f.files = append(f.files, file)
		json.NewEncoder(w).Encode(map[string]string{"id": file.ID, "name": file.Name})

	case r.Method == http.MethodPost && r.URL.Path == "/upload/drive/v3/files":
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mr := multipart.NewReader(r.Body, params["boundary"])
		metaPart, err := mr.NextPart()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var meta struct {
			Name    string   `json:"name"`
			Parents []string `json:"parents"`
		}
		json.NewDecoder(metaPart).Decode(&meta)
		mediaPart, err := mr.NextPart()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body, _ := io.ReadAll(mediaPart)
		file := &fakeFile{ID: fmt.Sprintf("id%d", len(f.files)+1), Name: meta.Name, Parent: meta.Parents[0], Body: body}
		f.files = append(f.files, file)
		json.NewEncoder(w).Encode(map[string]string{"id": file.ID, "name": file.Name, "webViewLink": "https://drive.example/" + file.ID})

	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"code":404,"message":"not found"}}`)
	}
}

func newTestDrive(t *testing.T) (*Drive, *fakeDrive, string) {
	t.Helper()
	fake := &fakeDrive{}
	srv := httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(srv.Close)

	svc, err := NewService(context.Background(), "token",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, svc, scratch.New(dir)), fake, dir
}

func TestEnsureContainer_FindsBeforeCreating(t *testing.T) {
	d, fake, _ := newTestDrive(t)
	ctx := context.Background()

	root, err := d.EnsureContainer(ctx, "gdrive-q-connector", domain.Container{})
	require.NoError(t, err)
	again, err := d.EnsureContainer(ctx, "gdrive-q-connector", domain.Container{})
	require.NoError(t, err)

	assert.Equal(t, root, again)
	assert.Equal(t, 1, fake.creates)
	assert.Equal(t, "application/vnd.google-apps.folder", fake.files[0].MimeType)
	assert.Equal(t, "root", fake.files[0].Parent)

	project, err := d.EnsureContainer(ctx, "o'neil-co", root)
	require.NoError(t, err)
	assert.Equal(t, "gdrive-q-connector/o'neil-co", project.Path)
	assert.Equal(t, root.ID, fake.files[1].Parent)

	_, err = d.EnsureContainer(ctx, "o'neil-co", root)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.creates)
}

func TestDeliver_RendersAndCleansUp(t *testing.T) {
	d, fake, dir := newTestDrive(t)
	ctx := context.Background()

	folder, err := d.EnsureContainer(ctx, "Data", domain.Container{})
	require.NoError(t, err)

	receipt, err := d.Deliver(ctx, folder, domain.GeneratedArtifact{
		Name:     "data_1.csv",
		Category: domain.Category{Name: "Data"},
		Type:     domain.TypeCSV,
		Text:     `Q1 "record" revenue`,
	})
	require.NoError(t, err)

	uploaded := fake.files[len(fake.files)-1]
	assert.Equal(t, "data_1.csv", uploaded.Name)
	assert.Equal(t, folder.ID, uploaded.Parent)
	assert.Equal(t, "Title,Description,Content\n\"data_1\",\"Generated file\",\"Q1 \"\"record\"\" revenue\"", string(uploaded.Body))
	assert.Equal(t, len(uploaded.Body), receipt.Size)
	assert.Equal(t, "https://drive.example/"+receipt.Locator, receipt.URL)
	assert.Equal(t, "Data", receipt.Details["folder"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch file must be removed")
}

func TestDeliver_ImageIsPlaceholder(t *testing.T) {
	d, fake, _ := newTestDrive(t)
	ctx := context.Background()

	folder, err := d.EnsureContainer(ctx, "Resources", domain.Container{})
	require.NoError(t, err)
	_, err = d.Deliver(ctx, folder, domain.GeneratedArtifact{Name: "resources_1.png", Type: domain.TypePNG, Text: "ignored"})
	require.NoError(t, err)

	body := fake.files[len(fake.files)-1].Body
	assert.Equal(t, "\x89PNG", string(body[:4]))
}

func TestRejectedToken(t *testing.T) {
	d, fake, dir := newTestDrive(t)
	fake.deny = true

	_, err := d.EnsureContainer(context.Background(), "gdrive-q-connector", domain.Container{})
	assert.ErrorIs(t, err, domain.ErrAuthExpired)

	_, err = d.Deliver(context.Background(), domain.Container{ID: "x"}, domain.GeneratedArtifact{Name: "a.txt", Type: domain.TypeTXT})
	var de *domain.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 401, de.StatusCode)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}
