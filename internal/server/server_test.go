package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/steplab/internal/testutil"
	"github.com/chazu/steplab/pkg/kernel"
	"github.com/chazu/steplab/pkg/kernel/memkernel"
	"github.com/chazu/steplab/pkg/session"
)

// stepText builds a minimal Part 21 file with one ADVANCED_FACE entity
// per name.
func stepText(names ...string) string {
	var b strings.Builder
	b.WriteString("ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\n")
	for i, n := range names {
		fmt.Fprintf(&b, "#%d = ADVANCED_FACE('%s',(#%d),#%d,.T.);\n", 100+i, n, 200+i, 300+i)
	}
	b.WriteString("#31 = ( LENGTH_UNIT() NAMED_UNIT(*) SI_UNIT(.MILLI.,.METRE.) );\n")
	b.WriteString("ENDSEC;\nEND-ISO-10303-21;\n")
	return b.String()
}

// newTestServer builds a server over a memkernel whose fallback shape
// is a 6-face box, with its upload directory already created.
func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	kern := memkernel.New()
	kern.SetFallback(memkernel.Box(10, 20, 30))

	s := New(Config{
		Kernel:      kern,
		Port:        0,
		UploadDir:   t.TempDir(),
		MaxUploadMB: 10,
		Logger:      testutil.NewTestLogger(t),
	})
	require.NoError(t, os.MkdirAll(s.uploadDir, 0o755))
	return s, s.routes()
}

// uploadFile POSTs content as a multipart upload.
func uploadFile(t *testing.T, h http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postJSON(h http.Handler, path string, v interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(v)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUploadFlow(t *testing.T) {
	_, h := newTestServer(t)

	rec := uploadFile(t, h, "bracket.step", stepText("", "NONE", "TOP", "", "", ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success  bool                 `json:"success"`
		Info     session.LoadInfo     `json:"info"`
		Mesh     *kernel.Mesh         `json:"mesh"`
		Faces    []session.FaceRecord `json:"faces"`
		Filename string               `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, "bracket.step", resp.Filename)
	assert.Equal(t, 6, resp.Info.NumFaces)
	assert.Equal(t, 6, resp.Info.NumStepEntities)
	assert.Equal(t, "mm", resp.Info.LengthUnit)
	require.Len(t, resp.Faces, 6)
	assert.Nil(t, resp.Faces[0].StepName)
	require.NotNil(t, resp.Faces[2].StepName)
	assert.Equal(t, "TOP", *resp.Faces[2].StepName)
	require.NotNil(t, resp.Mesh)
	assert.NoError(t, resp.Mesh.Validate())
}

func TestUploadRejectsExtension(t *testing.T) {
	_, h := newTestServer(t)
	rec := uploadFile(t, h, "model.stl", "solid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadWithoutFile(t *testing.T) {
	_, h := newTestServer(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadFile(t *testing.T) {
	_, h := newTestServer(t)
	path := filepath.Join(t.TempDir(), "local.step")
	require.NoError(t, os.WriteFile(path, []byte(stepText("", "", "", "", "", "")), 0o644))

	rec := postJSON(h, "/api/load_file", map[string]string{"filepath": path})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLoadFileMissing(t *testing.T) {
	_, h := newTestServer(t)
	rec := postJSON(h, "/api/load_file", map[string]string{"filepath": "/does/not/exist.step"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueriesBeforeLoad(t *testing.T) {
	_, h := newTestServer(t)

	for _, path := range []string{"/api/faces", "/api/face/0", "/api/mesh"} {
		rec := get(h, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "no STEP file loaded", path)
	}
}

func TestFaceLookup(t *testing.T) {
	_, h := newTestServer(t)
	uploadFile(t, h, "a.step", stepText("", "", "", "", "", ""))

	rec := get(h, "/api/face/2")
	require.Equal(t, http.StatusOK, rec.Code)
	var face session.FaceRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &face))
	assert.Equal(t, 2, face.ID)

	assert.Equal(t, http.StatusNotFound, get(h, "/api/face/42").Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/face/abc").Code)
}

func TestFeaturesRoundTrip(t *testing.T) {
	_, h := newTestServer(t)
	uploadFile(t, h, "a.step", stepText("", "", "", "", "", ""))

	features := session.Features{
		"boss": {{FaceID: 0, SubName: "top"}, {FaceID: 1}},
	}
	rec := postJSON(h, "/api/features", map[string]interface{}{"features": features})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = get(h, "/api/features")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Features session.Features `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, features, resp.Features)

	// The assignment is reflected in face metadata.
	rec = get(h, "/api/face/0")
	var face session.FaceRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &face))
	require.NotNil(t, face.Name)
	assert.Equal(t, "boss.top", *face.Name)
}

func TestExport(t *testing.T) {
	_, h := newTestServer(t)
	original := stepText("", "", "TOP", "", "", "")
	uploadFile(t, h, "part.step", original)

	features := session.Features{"boss": {{FaceID: 0, SubName: "top"}, {FaceID: 1}}}
	rec := postJSON(h, "/api/export", map[string]interface{}{"features": features})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "application/step", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "part_named.step")

	body := rec.Body.String()
	assert.Contains(t, body, "ADVANCED_FACE('boss.top',")
	assert.Contains(t, body, "ADVANCED_FACE('boss',")
	assert.Contains(t, body, "ADVANCED_FACE('TOP',")

	// Round-trip fidelity: same shape of file outside the name spans.
	assert.Contains(t, body, "SI_UNIT(.MILLI.,.METRE.)")
	assert.True(t, strings.HasSuffix(body, "END-ISO-10303-21;\n"))
}

func TestExportUsesStoredAssignment(t *testing.T) {
	_, h := newTestServer(t)
	uploadFile(t, h, "part.step", stepText("", "", "", "", "", ""))

	features := session.Features{"datum_a": {{FaceID: 0}}}
	require.Equal(t, http.StatusOK, postJSON(h, "/api/features", map[string]interface{}{"features": features}).Code)

	rec := postJSON(h, "/api/export", map[string]interface{}{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "ADVANCED_FACE('datum_a',")
}

func TestExportWithoutAssignment(t *testing.T) {
	_, h := newTestServer(t)
	uploadFile(t, h, "part.step", stepText("", "", "", "", "", ""))

	rec := postJSON(h, "/api/export", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no features defined")
}

func TestMeshQuery(t *testing.T) {
	_, h := newTestServer(t)
	uploadFile(t, h, "a.step", stepText("", "", "", "", "", ""))

	rec := get(h, "/api/mesh?linear_deflection=0.5&angular_deflection=1.0")
	require.Equal(t, http.StatusOK, rec.Code)

	var mesh kernel.Mesh
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mesh))
	assert.NoError(t, mesh.Validate())
	assert.Equal(t, 6, mesh.NumFaces)
	assert.Equal(t, mesh.TriangleCount(), len(mesh.FaceIDs))
}
