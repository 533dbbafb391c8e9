package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfmark/internal/bootstrap"
	"pdfmark/internal/client"
	"pdfmark/internal/config"
	"pdfmark/internal/editor"
	"pdfmark/internal/geometry"
	"pdfmark/internal/logging"
	"pdfmark/internal/model"
	"pdfmark/internal/transport/http/response"
	"pdfmark/internal/viewer"
)

func newTestRouter(t *testing.T) (*gin.Engine, *bootstrap.App) {
	t.Helper()
	cfg := config.Default()
	cfg.App.GinMode = gin.TestMode
	cfg.Log.Level = "error"
	cfg.Storage.Driver = config.StorageMemory
	cfg.ObjectStore.Driver = config.ObjectStoreLocal
	cfg.ObjectStore.Dir = t.TempDir()
	cfg.ObjectStore.PublicBaseURL = "http://files.test/files"

	app, err := bootstrap.NewWithConfig(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return NewRouter(app), app
}

func serve(router http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func serveJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	return serve(router, method, path, strings.NewReader(body), "application/json")
}

func upload(t *testing.T, router http.Handler, name string) model.Document {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 not really a pdf"))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("author", "Ann"))
	require.NoError(t, w.WriteField("authorMessage", "please review"))
	require.NoError(t, w.Close())

	rec := serve(router, http.MethodPost, "/api/upload", &body, w.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var doc model.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	return doc
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestUploadAndFetchDocument(t *testing.T) {
	router, _ := newTestRouter(t)
	doc := upload(t, router, "My Report.pdf")

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "My Report.pdf", doc.OriginalName)
	assert.Equal(t, doc.ID+"/My_Report.pdf", doc.ObjectKey)
	assert.Equal(t, "http://files.test/files/"+doc.ID+"/My_Report.pdf", doc.SourceURL)
	assert.Equal(t, "Ann", doc.Author)

	rec := serve(router, http.MethodGet, "/api/docs/"+doc.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, doc.ID, got.ID)

	rec = serve(router, http.MethodGet, "/files/"+doc.ObjectKey, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4 not really a pdf", rec.Body.String())
}

func TestUploadWithoutFile(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := serveJSON(router, http.MethodPost, "/api/upload", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, response.CodeBadRequest, decodeError(t, rec).Code)
}

func TestUnknownDocumentIsNotFoundEverywhere(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, tc := range []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/docs/nope", ""},
		{http.MethodGet, "/api/docs/nope/annotations", ""},
		{http.MethodPost, "/api/docs/nope/highlights", `{"highlights":[]}`},
		{http.MethodPost, "/api/docs/nope/comments/add", `{"page":1,"x":0.5,"y":0.5}`},
		{http.MethodPut, "/api/docs/nope/annotations/a", `{"page":1,"x":0.1,"y":0.1,"w":0.1,"h":0.1}`},
		{http.MethodDelete, "/api/docs/nope/comments/a", ""},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := serveJSON(router, tc.method, tc.path, tc.body)
			require.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, response.CodeDocumentNotFound, decodeError(t, rec).Code)
		})
	}
}

func TestReplaceAndListAnnotations(t *testing.T) {
	router, _ := newTestRouter(t)
	doc := upload(t, router, "a.pdf")
	base := "/api/docs/" + doc.ID + "/annotations"

	rec := serve(router, http.MethodGet, base, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serveJSON(router, http.MethodPost, base, `{"annotations":[
		{"id":1700000000000,"page":1,"x":0.1,"y":0.1,"w":0.2,"h":0.1,"text":"first","type":"annotate"},
		{"id":"b","page":2,"x":0.5,"y":0.5,"w":0.1,"h":0.1,"text":"second","visible":false}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = serve(router, http.MethodGet, base, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []model.Markup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, model.MarkupID("1700000000000"), items[0].ID)
	assert.Equal(t, model.KindAnnotation, items[0].Kind)
	assert.True(t, items[0].Visible)
	assert.Equal(t, "first", items[0].TextValue())
	assert.Equal(t, model.MarkupID("b"), items[1].ID)
	assert.False(t, items[1].Visible)

	rec = serveJSON(router, http.MethodPost, base, `{"annotations":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = serve(router, http.MethodGet, base, nil, "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestReplaceRejectsBadPayloads(t *testing.T) {
	router, _ := newTestRouter(t)
	doc := upload(t, router, "a.pdf")

	for name, tc := range map[string]struct {
		path, body string
		code       int
	}{
		"not an array":   {"/annotations", `{"annotations":"nope"}`, response.CodeBadRequest},
		"missing key":    {"/annotations", `{"highlights":[]}`, response.CodeBadRequest},
		"null list":      {"/comments", `{"comments":null}`, response.CodeBadRequest},
		"not json":       {"/comments", `nope`, response.CodeBadRequest},
		"wrong type":     {"/comments", `{"comments":[{"type":"highlight","page":1,"x":0.1,"y":0.1,"w":0.1,"h":0.1}]}`, response.CodeInvalidMarkup},
		"off the page":   {"/highlights", `{"highlights":[{"page":1,"x":0.9,"y":0.1,"w":0.5,"h":0.1}]}`, response.CodeInvalidMarkup},
		"page zero":      {"/annotations", `{"annotations":[{"page":0,"x":0.1,"y":0.1,"w":0.1,"h":0.1}]}`, response.CodeInvalidMarkup},
		"duplicate ids":  {"/annotations", `{"annotations":[{"id":"a","page":1,"x":0.1,"y":0.1,"w":0.1,"h":0.1},{"id":"a","page":1,"x":0.2,"y":0.2,"w":0.1,"h":0.1}]}`, response.CodeInvalidMarkup},
		"unknown type":   {"/annotations", `{"annotations":[{"type":"stamp","page":1}]}`, response.CodeBadRequest},
	} {
		t.Run(name, func(t *testing.T) {
			rec := serveJSON(router, http.MethodPost, "/api/docs/"+doc.ID+tc.path, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
		})
	}

	rec := serve(router, http.MethodGet, "/api/docs/"+doc.ID+"/annotations", nil, "")
	assert.JSONEq(t, `[]`, rec.Body.String(), "rejected submissions write nothing")
}

func TestHighlightTextIsDropped(t *testing.T) {
	router, _ := newTestRouter(t)
	doc := upload(t, router, "a.pdf")
	base := "/api/docs/" + doc.ID + "/highlights"

	rec := serveJSON(router, http.MethodPost, base, `{"highlights":[{"id":"h","page":1,"x":0.1,"y":0.1,"w":0.3,"h":0.05,"text":"ignored","visible":false}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(router, http.MethodGet, base, nil, "")
	var items []model.Markup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Nil(t, items[0].Text)
	assert.True(t, items[0].Visible)
	assert.Equal(t, model.KindHighlight, items[0].Kind)
}

func TestSingleRecordOperations(t *testing.T) {
	router, _ := newTestRouter(t)
	doc := upload(t, router, "a.pdf")
	base := "/api/docs/" + doc.ID + "/comments"

	rec := serveJSON(router, http.MethodPost, base+"/add", `{"id":"c1","page":1,"x":0.2,"y":0.3,"text":"look"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Markup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, model.KindComment, created.Kind)
	assert.NotNil(t, created.LastEdited)

	rec = serveJSON(router, http.MethodPost, base+"/add", `{"id":"c1","page":1,"x":0.2,"y":0.3}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, response.CodeMarkupExists, decodeError(t, rec).Code)

	rec = serveJSON(router, http.MethodPut, base+"/c1", `{"page":1,"x":0.25,"y":0.3,"text":"updated"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serveJSON(router, http.MethodPut, base+"/missing", `{"page":1,"x":0.25,"y":0.3}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, response.CodeMarkupNotFound, decodeError(t, rec).Code)

	rec = serve(router, http.MethodGet, base, nil, "")
	var items []model.Markup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "updated", items[0].TextValue())

	rec = serve(router, http.MethodDelete, base+"/c1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = serve(router, http.MethodDelete, base+"/c1", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListDocuments(t *testing.T) {
	router, _ := newTestRouter(t)
	upload(t, router, "alpha.pdf")
	upload(t, router, "beta.pdf")

	rec := serve(router, http.MethodGet, "/api/docs?q=ALPHA", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var docs []model.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "alpha.pdf", docs[0].OriginalName)

	rec = serve(router, http.MethodGet, "/api/docs?limit=1", nil, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	assert.Len(t, docs, 1)

	rec = serve(router, http.MethodGet, "/api/docs?limit=lots", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t)
	upload(t, router, "a.pdf")

	rec := serve(router, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"memory":{"ok":true}`)

	rec = serve(router, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pdfmark_uploads_total{result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `pdfmark_http_requests_total`)

	rec = serve(router, http.MethodGet, "/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, response.CodeRouteNotFound, decodeError(t, rec).Code)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/docs/x/annotations", nil)
	req.Header.Set("Origin", "http://viewer.test")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestViewerSessionAgainstServer(t *testing.T) {
	router, _ := newTestRouter(t)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	api := client.New(srv.URL)
	doc, err := api.Upload(ctx, "shared.pdf", strings.NewReader("%PDF-1.4"), "Ann", "")
	require.NoError(t, err)

	cfg := viewer.Config{Editor: editor.DefaultConfig(), Logger: logging.Nop()}
	s, err := viewer.Open(ctx, api, doc.ID, cfg)
	require.NoError(t, err)

	page := geometry.Container{Width: 920, Height: 1190}
	require.NoError(t, s.Edit(func(e *editor.Editor) error {
		if err := e.SetTool(editor.ModeHighlight); err != nil {
			return err
		}
		e.PointerDown(geometry.Point{X: 0.1, Y: 0.2})
		e.PointerMove(geometry.Point{X: 0.6, Y: 0.25})
		if _, ok := e.PointerUp(); !ok {
			t.Fatal("highlight was not created")
		}
		if err := e.SetTool(editor.ModeComment); err != nil {
			return err
		}
		it, ok := e.Click(geometry.Point{X: 0.8, Y: 0.5}, page)
		if !ok {
			t.Fatal("comment was not created")
		}
		return e.SetText(it.ID, "why?")
	}))
	require.NoError(t, s.Submit(ctx))
	s.Close()

	manager := viewer.Config{Editor: editor.ManagerConfig(), Logger: logging.Nop()}
	again, err := viewer.Open(ctx, api, doc.ID, manager)
	require.NoError(t, err)
	frame := again.Render(page)
	require.Len(t, frame.Placements, 2)
	require.Len(t, frame.List, 2)

	comments, err := api.ListMarkups(ctx, doc.ID, model.KindComment)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "why?", comments[0].TextValue())
	assert.True(t, comments[0].HasBox())

	_, err = viewer.Open(ctx, api, "missing", cfg)
	assert.ErrorIs(t, err, viewer.ErrDocumentNotFound)
}

func TestAnnotateSubmitReloadIsIdempotent(t *testing.T) {
	router, _ := newTestRouter(t)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	api := client.New(srv.URL)
	doc, err := api.Upload(ctx, "spec.pdf", strings.NewReader("%PDF-1.4"), "", "")
	require.NoError(t, err)

	s, err := viewer.Open(ctx, api, doc.ID, viewer.Config{Editor: editor.DefaultConfig(), Logger: logging.Nop()})
	require.NoError(t, err)
	require.NoError(t, s.Edit(func(e *editor.Editor) error {
		if err := e.SetTool(editor.ModeAnnotate); err != nil {
			return err
		}
		e.PointerDown(geometry.Point{X: 0.1, Y: 0.1})
		e.PointerMove(geometry.Point{X: 0.3, Y: 0.2})
		it, ok := e.PointerUp()
		if !ok {
			t.Fatal("annotation was not created")
		}
		return e.SetText(it.ID, "check this")
	}))
	require.NoError(t, s.Submit(ctx))

	first, err := api.ListMarkups(ctx, doc.ID, model.KindAnnotation)
	require.NoError(t, err)
	require.Len(t, first, 1)
	a := first[0]
	assert.Equal(t, model.KindAnnotation, a.Kind)
	assert.Equal(t, 1, a.Page)
	assert.InDelta(t, 0.1, a.X, 1e-9)
	assert.InDelta(t, 0.1, a.Y, 1e-9)
	assert.InDelta(t, 0.2, a.W, 1e-9)
	assert.InDelta(t, 0.1, a.H, 1e-9)
	assert.Equal(t, "check this", a.TextValue())

	require.NoError(t, s.Submit(ctx))
	second, err := api.ListMarkups(ctx, doc.ID, model.KindAnnotation)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, s.Edit(func(e *editor.Editor) error {
		return e.Delete(a.ID)
	}))
	require.NoError(t, s.Submit(ctx))
	after, err := api.ListMarkups(ctx, doc.ID, model.KindAnnotation)
	require.NoError(t, err)
	assert.Empty(t, after)
}
