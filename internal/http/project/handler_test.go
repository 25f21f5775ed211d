package project_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/billbot/internal/catalog"
	"github.com/MrJamesThe3rd/billbot/internal/http/project"
)

func newRouter(repo catalog.Repository) http.Handler {
	r := chi.NewRouter()
	r.Route("/projects", project.NewHandler(catalog.NewService(repo)).Routes)

	return r
}

func TestHandler_Create(t *testing.T) {
	type testCase struct {
		name       string
		body       string
		setupMock  func(m *catalog.MockRepository)
		wantStatus int
	}

	tests := []testCase{
		{
			name: "Success",
			body: `{"name":"Acme","rate":"500"}`,
			setupMock: func(m *catalog.MockRepository) {
				m.EXPECT().GetProjectByName(gomock.Any(), "Acme").Return(nil, catalog.ErrNotFound)
				m.EXPECT().CreateProject(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, p *catalog.Project) error {
					assert.True(t, p.Active)
					assert.True(t, p.Rate.Equal(decimal.NewFromInt(500)))
					p.ID = uuid.New()
					p.CreatedAt = time.Now()

					return nil
				})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "MissingName",
			body:       `{"rate":500}`,
			setupMock:  func(m *catalog.MockRepository) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "BlankName",
			body:       `{"name":"   ","rate":500}`,
			setupMock:  func(m *catalog.MockRepository) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "NonPositiveRate",
			body:       `{"name":"Acme","rate":0}`,
			setupMock:  func(m *catalog.MockRepository) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "MalformedJSON",
			body:       `{"name":`,
			setupMock:  func(m *catalog.MockRepository) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "DuplicateName",
			body: `{"name":"Acme","rate":500}`,
			setupMock: func(m *catalog.MockRepository) {
				m.EXPECT().GetProjectByName(gomock.Any(), "Acme").Return(&catalog.Project{ID: uuid.New(), Name: "acme"}, nil)
			},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := catalog.NewMockRepository(ctrl)
			tt.setupMock(repo)

			req := httptest.NewRequest(http.MethodPost, "/projects/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			newRouter(repo).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandler_Get(t *testing.T) {
	id := uuid.New()

	t.Run("Found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := catalog.NewMockRepository(ctrl)
		repo.EXPECT().GetProject(gomock.Any(), id).Return(&catalog.Project{
			ID:     id,
			Name:   "Acme",
			Rate:   decimal.RequireFromString("450.50"),
			Active: true,
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/projects/"+id.String(), nil)
		rec := httptest.NewRecorder()

		newRouter(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Acme", body["name"])
		assert.Equal(t, "450.5", body["rate"])
	})

	t.Run("NotFound", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := catalog.NewMockRepository(ctrl)
		repo.EXPECT().GetProject(gomock.Any(), id).Return(nil, catalog.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/projects/"+id.String(), nil)
		rec := httptest.NewRecorder()

		newRouter(repo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("InvalidID", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := catalog.NewMockRepository(ctrl)

		req := httptest.NewRequest(http.MethodGet, "/projects/nope", nil)
		rec := httptest.NewRecorder()

		newRouter(repo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_ToggleActive(t *testing.T) {
	id := uuid.New()

	ctrl := gomock.NewController(t)
	repo := catalog.NewMockRepository(ctrl)
	repo.EXPECT().GetProject(gomock.Any(), id).Return(&catalog.Project{ID: id, Name: "Acme", Rate: decimal.NewFromInt(500), Active: true}, nil)
	repo.EXPECT().UpdateProject(gomock.Any(), gomock.Any()).Return(nil)

	req := httptest.NewRequest(http.MethodPatch, "/projects/"+id.String()+"/toggle-active", nil)
	rec := httptest.NewRecorder()

	newRouter(repo).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["active"])
}

func TestHandler_Delete(t *testing.T) {
	id := uuid.New()

	ctrl := gomock.NewController(t)
	repo := catalog.NewMockRepository(ctrl)
	repo.EXPECT().GetProject(gomock.Any(), id).Return(&catalog.Project{ID: id}, nil)
	repo.EXPECT().DeleteProject(gomock.Any(), id).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/projects/"+id.String(), nil)
	rec := httptest.NewRecorder()

	newRouter(repo).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandler_Import(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := catalog.NewMockRepository(ctrl)

	repo.EXPECT().GetProjectByName(gomock.Any(), "Acme").Return(nil, catalog.ErrNotFound)
	repo.EXPECT().CreateProject(gomock.Any(), gomock.Any()).Return(nil)
	repo.EXPECT().GetProjectByName(gomock.Any(), "Globex").Return(&catalog.Project{ID: uuid.New(), Name: "Globex"}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "projects.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("nome;tariffa;attivo\nAcme;500,00;si\nGlobex;400;no\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/projects/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	newRouter(repo).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Created    []map[string]any `json:"created"`
		Duplicates []string         `json:"duplicates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Created, 1)
	assert.Equal(t, []string{"Globex"}, body.Duplicates)
}

func TestHandler_ImportRejectsMissingFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := catalog.NewMockRepository(ctrl)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/projects/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	newRouter(repo).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
