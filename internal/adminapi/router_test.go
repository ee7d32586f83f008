package adminapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/EnCirca/nomulus/internal/model"
	"github.com/EnCirca/nomulus/internal/storage"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouterTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:adminapi_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := storage.Open(dsn, nil)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return db
}

func seedResource(t *testing.T, db *gorm.DB, repoID string, kind model.ResourceKind, name, tld, sponsor string, deletedAt int64) {
	t.Helper()
	created := tokenTestClock().AddDate(0, 0, -10)
	resource := &model.Resource{
		RepoID:                 repoID,
		Kind:                   kind,
		Name:                   name,
		TLD:                    tld,
		CurrentSponsorClientID: sponsor,
		Statuses:               model.NewStatusSet(model.StatusOK),
		Revisions:              model.NewRevisionIndex(),
		CreationTimeMillis:     created.UnixMilli(),
		LastUpdateTimeMillis:   created.UnixMilli(),
		DeletionTimeMillis:     deletedAt,
		Version:                1,
	}
	if err := storage.CreateResource(db, resource); err != nil {
		t.Fatalf("failed to seed resource %s: %v", repoID, err)
	}
}

func newTestHandler(t *testing.T, db *gorm.DB) (http.Handler, string) {
	t.Helper()

	tokens := newTestTokenManager("test-secret")
	handler, err := NewHTTPHandler(Dependencies{
		Database:     db,
		TokenManager: tokens,
		Clock:        tokenTestClock,
	})
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}
	token, _, err := tokens.IssueToken("ops@example.com")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return handler, token
}

func listResources(t *testing.T, handler http.Handler, token, path string) (int, []map[string]string) {
	t.Helper()

	request := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		return recorder.Code, nil
	}
	var payload struct {
		Resources []map[string]string `json:"resources"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return recorder.Code, payload.Resources
}

func TestListResourcesRequiresBearerToken(t *testing.T) {
	db := newRouterTestDB(t)
	handler, _ := newTestHandler(t, db)

	status, _ := listResources(t, handler, "", "/registrars/TheRegistrar/resources")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}

	status, _ = listResources(t, handler, "not-a-token", "/registrars/TheRegistrar/resources")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", status)
	}
}

func TestListResourcesFilters(t *testing.T) {
	db := newRouterTestDB(t)
	seedResource(t, db, "roid-1", model.KindDomain, "example.tld", "tld", "TheRegistrar", 0)
	seedResource(t, db, "roid-2", model.KindDomain, "example.other", "other", "TheRegistrar", 0)
	seedResource(t, db, "roid-3", model.KindContact, "sh8013", "", "TheRegistrar", 0)
	seedResource(t, db, "roid-4", model.KindDomain, "gone.tld", "tld", "TheRegistrar", tokenTestClock().AddDate(0, 0, -1).UnixMilli())
	seedResource(t, db, "roid-5", model.KindDomain, "foreign.tld", "tld", "NewRegistrar", 0)
	handler, token := newTestHandler(t, db)

	tests := []struct {
		name      string
		path      string
		wantRoids []string
	}{
		{
			name:      "all-live-for-registrar",
			path:      "/registrars/TheRegistrar/resources",
			wantRoids: []string{"roid-2", "roid-1", "roid-3"},
		},
		{
			name:      "kind-filter",
			path:      "/registrars/TheRegistrar/resources?kind=contact",
			wantRoids: []string{"roid-3"},
		},
		{
			name:      "tld-filter",
			path:      "/registrars/TheRegistrar/resources?tld=TLD",
			wantRoids: []string{"roid-1"},
		},
		{
			name:      "other-registrar",
			path:      "/registrars/NewRegistrar/resources",
			wantRoids: []string{"roid-5"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, resources := listResources(t, handler, token, tc.path)
			if status != http.StatusOK {
				t.Fatalf("unexpected status %d", status)
			}
			if len(resources) != len(tc.wantRoids) {
				t.Fatalf("expected %d resources, got %+v", len(tc.wantRoids), resources)
			}
			for i, want := range tc.wantRoids {
				if resources[i]["roid"] != want {
					t.Fatalf("position %d: expected %s, got %+v", i, want, resources[i])
				}
			}
		})
	}
}

func TestListResourcesRejectsUnknownKind(t *testing.T) {
	db := newRouterTestDB(t)
	handler, token := newTestHandler(t, db)

	status, _ := listResources(t, handler, token, "/registrars/TheRegistrar/resources?kind=widget")
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", status)
	}
}
