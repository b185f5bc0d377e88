package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"impacthub/internal/impactgate"
	"impacthub/internal/providers/impact"
)

func TestProjectsCreateGate(t *testing.T) {
	draft := map[string]string{
		"title":       "Clean water for Rampur",
		"impact_area": "Water",
		"description": "Install filters in the village school",
	}
	tests := []struct {
		name     string
		policy   impactgate.Policy
		verdict  impact.Verdict
		want     int
		wantCode string
	}{
		{name: "not enforced", policy: impactgate.Policy{}, verdict: impact.Verdict{Result: impact.False}, want: http.StatusCreated},
		{name: "enforced accept", policy: impactgate.Policy{Enforce: true}, verdict: impact.Verdict{Result: impact.True}, want: http.StatusCreated},
		{name: "enforced reject", policy: impactgate.Policy{Enforce: true}, verdict: impact.Verdict{Result: impact.False, Reason: "commercial"}, want: http.StatusBadRequest, wantCode: "not_impactful"},
		{name: "unknown fail open", policy: impactgate.Policy{Enforce: true, FailOpen: true}, verdict: impact.Verdict{Error: "HTTP 503: down"}, want: http.StatusCreated},
		{name: "unknown fail closed", policy: impactgate.Policy{Enforce: true}, verdict: impact.Verdict{Error: "HTTP 503: down"}, want: http.StatusBadRequest, wantCode: "classification_ambiguous"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, tc.policy)
			env.classifier.verdict = tc.verdict
			owner := env.addUser(t, "owner", false)

			rec := httptest.NewRecorder()
			env.app.ProjectsCreate(rec, request(t, http.MethodPost, "/projects", draft, owner.ID, ""))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tc.want, rec.Body.String())
			}
			if tc.wantCode != "" {
				var rej rejectionResponse
				decodeBody(t, rec, &rej)
				if rej.Code != tc.wantCode || rej.Reason != tc.verdict.Reason || rej.ClassifierError != tc.verdict.Error {
					t.Fatalf("rejection = %+v", rej)
				}
				if len(env.store.projects) != 0 {
					t.Fatal("rejected project was stored")
				}
				return
			}
			var dto projectDTO
			decodeBody(t, rec, &dto)
			if dto.Creator == nil || dto.Creator.ID != owner.ID {
				t.Fatalf("creator = %+v", dto.Creator)
			}
		})
	}
}

func TestProjectsCreateValidation(t *testing.T) {
	env := newTestEnv(t, impactgate.Policy{Enforce: true})
	owner := env.addUser(t, "owner", false)
	rec := httptest.NewRecorder()
	env.app.ProjectsCreate(rec, request(t, http.MethodPost, "/projects", map[string]string{"title": "No area"}, owner.ID, ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.classifier.calls != 0 {
		t.Fatal("classifier called for an invalid draft")
	}
}

func TestProjectDetailSupportAndComments(t *testing.T) {
	env := newTestEnv(t, impactgate.Policy{})
	owner := env.addUser(t, "owner", false)
	fan := env.addUser(t, "fan", false)
	p := env.addProject(t, owner, "Solar lamps")

	for i, want := range []string{"project supported", "already supported"} {
		rec := httptest.NewRecorder()
		env.app.ProjectsSupport(rec, request(t, http.MethodPost, "/projects/"+p.ID+"/support", nil, fan.ID, p.ID))
		var out map[string]string
		decodeBody(t, rec, &out)
		if out["status"] != want {
			t.Fatalf("support #%d status = %q, want %q", i+1, out["status"], want)
		}
	}

	rec := httptest.NewRecorder()
	env.app.CommentsCreate(rec, request(t, http.MethodPost, "/", map[string]string{"comment_text": "  Great idea  "}, fan.ID, p.ID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment status = %d body=%s", rec.Code, rec.Body.String())
	}
	var c commentDTO
	decodeBody(t, rec, &c)
	if c.Content != "Great idea" || c.User.Username != "fan" {
		t.Fatalf("comment = %+v", c)
	}

	rec = httptest.NewRecorder()
	env.app.CommentsCreate(rec, request(t, http.MethodPost, "/", map[string]string{"content": "   "}, fan.ID, p.ID))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty comment status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.app.ProjectsDetail(rec, request(t, http.MethodGet, "/projects/"+p.ID, nil, fan.ID, p.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d", rec.Code)
	}
	var dto projectDTO
	decodeBody(t, rec, &dto)
	if dto.SupportersCount != 1 || !dto.IsSupported || len(dto.Comments) != 1 {
		t.Fatalf("detail = %+v", dto)
	}
	if dto.Creator == nil || dto.Creator.Username != "owner" {
		t.Fatalf("creator = %+v", dto.Creator)
	}
	if dto.DonationsTotal != "0.00" || dto.DonationsCount == nil || *dto.DonationsCount != 0 {
		t.Fatalf("donation totals = %q %v", dto.DonationsTotal, dto.DonationsCount)
	}

	rec = httptest.NewRecorder()
	env.app.UserStats(rec, request(t, http.MethodGet, "/user/stats", nil, owner.ID, ""))
	var stats map[string]int
	decodeBody(t, rec, &stats)
	if stats["totalProjects"] != 1 || stats["impactReach"] != 1 || stats["totalSupported"] != 0 {
		t.Fatalf("stats = %v", stats)
	}

	rec = httptest.NewRecorder()
	env.app.ProjectsSupported(rec, request(t, http.MethodGet, "/projects/supported", nil, fan.ID, ""))
	var supported []projectDTO
	decodeBody(t, rec, &supported)
	if len(supported) != 1 || supported[0].ID != p.ID {
		t.Fatalf("supported = %+v", supported)
	}
}

func TestProjectDetailNotFound(t *testing.T) {
	env := newTestEnv(t, impactgate.Policy{})
	for _, id := range []string{"not-a-uuid", "7d4f3c1e-0000-4000-8000-000000000000"} {
		rec := httptest.NewRecorder()
		env.app.ProjectsDetail(rec, request(t, http.MethodGet, "/projects/"+id, nil, "", id))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("detail %q status = %d", id, rec.Code)
		}
	}
}

func TestProjectsUpdateAndDeletePermissions(t *testing.T) {
	env := newTestEnv(t, impactgate.Policy{})
	owner := env.addUser(t, "owner", false)
	other := env.addUser(t, "other", false)
	admin := env.addUser(t, "admin", true)
	p := env.addProject(t, owner, "Library")

	rec := httptest.NewRecorder()
	env.app.ProjectsUpdate(rec, request(t, http.MethodPatch, "/", map[string]string{"title": "Hijacked"}, other.ID, p.ID))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("other user patch status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.app.ProjectsUpdate(rec, request(t, http.MethodPatch, "/", map[string]string{"title": " Village library "}, owner.ID, p.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("owner patch status = %d body=%s", rec.Code, rec.Body.String())
	}
	stored := env.store.projects[p.ID]
	if stored.Title != "Village library" || stored.ImpactArea != "Education" || stored.UserID != owner.ID {
		t.Fatalf("stored after patch = %+v", stored)
	}

	rec = httptest.NewRecorder()
	env.app.ProjectsUpdate(rec, request(t, http.MethodPut, "/", map[string]string{"title": "Only title"}, owner.ID, p.ID))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("partial put status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.app.ProjectsDelete(rec, request(t, http.MethodDelete, "/", nil, other.ID, p.ID))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("other user delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	env.app.ProjectsDelete(rec, request(t, http.MethodDelete, "/", nil, admin.ID, p.ID))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("admin delete status = %d", rec.Code)
	}
	if _, ok := env.store.projects[p.ID]; ok {
		t.Fatal("project still stored after delete")
	}
}
