package github_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
	githubinfra "github.com/m-mizutani/releasebot/pkg/infra/github"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

// apiServer is a scripted GitHub API. Handlers are registered with Go 1.22
// patterns relative to the REST root; GraphQL requests go to /graphql.
type apiServer struct {
	t      *testing.T
	mux    *http.ServeMux
	server *httptest.Server

	mu       sync.Mutex
	requests []recorded
}

func newAPIServer(t *testing.T) *apiServer {
	s := &apiServer{t: t, mux: http.NewServeMux()}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path}
		if data, err := io.ReadAll(r.Body); err == nil && len(data) > 0 {
			_ = json.Unmarshal(data, &rec.body)
			r.Body = io.NopCloser(strings.NewReader(string(data)))
		}
		s.mu.Lock()
		s.requests = append(s.requests, rec)
		s.mu.Unlock()

		s.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *apiServer) handle(pattern string, status int, body any) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		gt.NoError(s.t, json.NewEncoder(w).Encode(body))
	})
}

func (s *apiServer) find(method, path string) []recorded {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found []recorded
	for _, r := range s.requests {
		if r.method == method && r.path == path {
			found = append(found, r)
		}
	}
	return found
}

func (s *apiServer) client(t *testing.T, opts ...githubinfra.Option) *githubinfra.Client {
	opts = append([]githubinfra.Option{
		githubinfra.WithBaseURL(s.server.URL+"/api/v3", s.server.URL+"/graphql"),
	}, opts...)
	client, err := githubinfra.NewClient("owner", "repo", s.server.Client(), opts...)
	gt.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	_, err := githubinfra.NewClient("", "repo", http.DefaultClient)
	gt.Error(t, err)

	client, err := githubinfra.NewClient("owner", "repo", http.DefaultClient)
	gt.NoError(t, err)
	gt.Value(t, client).NotNil()
}

func TestNewAppHTTPClient(t *testing.T) {
	_, _, err := githubinfra.NewAppHTTPClient(1, 2, []byte("not a private key"))
	gt.Error(t, err)
}

func TestClient_LatestRelease(t *testing.T) {
	s := newAPIServer(t)
	s.handle("GET /api/v3/repos/owner/repo/releases", http.StatusOK, []map[string]any{
		{"tag_name": "1.2.0", "draft": false},
		{"tag_name": "v1.10.0", "draft": false},
		{"tag_name": "2.0.0", "draft": true},
		{"tag_name": "nightly", "draft": false},
		{"tag_name": "1.9.9", "draft": false},
	})

	latest, err := s.client(t).LatestRelease(context.Background())
	gt.NoError(t, err)
	gt.Value(t, latest).Equal("v1.10.0")
}

func TestClient_LatestRelease_NoReleases(t *testing.T) {
	s := newAPIServer(t)
	s.handle("GET /api/v3/repos/owner/repo/releases", http.StatusOK, []map[string]any{})

	latest, err := s.client(t).LatestRelease(context.Background())
	gt.NoError(t, err)
	gt.Value(t, latest).Equal("")
}

func TestClient_OpenIssues(t *testing.T) {
	s := newAPIServer(t)
	s.handle("POST /graphql", http.StatusOK, map[string]any{
		"data": map[string]any{
			"repository": map[string]any{
				"issues": map[string]any{
					"edges": []map[string]any{
						{"cursor": "c1", "node": map[string]any{"id": "I_1", "number": 1, "title": "new minor release", "authorAssociation": "OWNER"}},
						{"cursor": "c2", "node": map[string]any{"id": "I_2", "number": 2, "title": "bug", "authorAssociation": "NONE"}},
					},
				},
			},
		},
	})

	edges, err := s.client(t, githubinfra.WithPageSize(2)).OpenIssues(context.Background(), "c9", model.DirectionBefore)
	gt.NoError(t, err)
	gt.Number(t, len(edges)).Equal(2)
	gt.Value(t, edges[0]).Equal(model.IssueEdge{
		Cursor: "c1",
		Node:   model.IssueNode{ID: "I_1", Number: 1, Title: "new minor release", AuthorAssociation: "OWNER"},
	})

	reqs := s.find(http.MethodPost, "/graphql")
	gt.Number(t, len(reqs)).Equal(1)
	gt.String(t, reqs[0].body["query"].(string)).Contains("issues(states: OPEN, last: $count, before: $cursor)")
	vars := reqs[0].body["variables"].(map[string]any)
	gt.Value(t, vars["cursor"]).Equal("c9")
	gt.Value(t, vars["count"]).Equal(float64(2))
	gt.Value(t, vars["owner"]).Equal("owner")
}

func TestClient_ClosedPullRequests(t *testing.T) {
	s := newAPIServer(t)
	s.handle("POST /graphql", http.StatusOK, map[string]any{
		"data": map[string]any{
			"repository": map[string]any{
				"pullRequests": map[string]any{
					"edges": []map[string]any{
						{"cursor": "p1", "node": map[string]any{"id": "PR_1", "number": 10, "title": "closed", "mergeCommit": nil}},
						{"cursor": "p2", "node": map[string]any{
							"id": "PR_2", "number": 11, "title": "1.1.0 release",
							"mergeCommit": map[string]any{"oid": "abc123", "author": map[string]any{"name": "Dev", "email": "dev@example.com"}},
						}},
					},
				},
			},
		},
	})

	edges, err := s.client(t).ClosedPullRequests(context.Background(), "", model.DirectionBefore)
	gt.NoError(t, err)
	gt.Number(t, len(edges)).Equal(2)
	gt.Value(t, edges[0].Node.MergeCommit).Nil()
	gt.NotNil(t, edges[1].Node.MergeCommit)
	gt.Value(t, *edges[1].Node.MergeCommit).Equal(model.MergeCommit{
		OID:    "abc123",
		Author: model.CommitAuthor{Name: "Dev", Email: "dev@example.com"},
	})

	reqs := s.find(http.MethodPost, "/graphql")
	gt.Number(t, len(reqs)).Equal(1)
	gt.String(t, reqs[0].body["query"].(string)).Contains("pullRequests(states: [CLOSED, MERGED], last: $count, before: $cursor)")
	vars := reqs[0].body["variables"].(map[string]any)
	gt.Value(t, vars["cursor"]).Nil()
}

func TestClient_MakeNewRelease(t *testing.T) {
	t.Run("creates release from commit", func(t *testing.T) {
		s := newAPIServer(t)
		s.handle("GET /api/v3/repos/owner/repo/releases/tags/1.1.0", http.StatusNotFound, map[string]any{"message": "Not Found"})
		s.handle("POST /api/v3/repos/owner/repo/releases", http.StatusCreated, map[string]any{
			"id":       1,
			"html_url": "https://github.com/owner/repo/releases/tag/1.1.0",
		})

		req := &model.ReleaseRequest{
			Version:   model.MustParseVersion("1.1.0"),
			Commitish: "abc123",
			Notes:     "## 1.1.0",
		}
		created, err := s.client(t).MakeNewRelease(context.Background(), req)
		gt.NoError(t, err)
		gt.True(t, created)
		gt.Value(t, req.ReleaseURL).Equal("https://github.com/owner/repo/releases/tag/1.1.0")

		reqs := s.find(http.MethodPost, "/api/v3/repos/owner/repo/releases")
		gt.Number(t, len(reqs)).Equal(1)
		gt.Value(t, reqs[0].body["tag_name"]).Equal("1.1.0")
		gt.Value(t, reqs[0].body["target_commitish"]).Equal("abc123")
		gt.Value(t, reqs[0].body["body"]).Equal("## 1.1.0")
		gt.Value(t, reqs[0].body["prerelease"]).Equal(false)
	})

	t.Run("existing release is not created again", func(t *testing.T) {
		s := newAPIServer(t)
		s.handle("GET /api/v3/repos/owner/repo/releases/tags/1.1.0", http.StatusOK, map[string]any{
			"id":       1,
			"html_url": "https://github.com/owner/repo/releases/tag/1.1.0",
		})

		req := &model.ReleaseRequest{Version: model.MustParseVersion("1.1.0"), Commitish: "abc123"}
		created, err := s.client(t).MakeNewRelease(context.Background(), req)
		gt.NoError(t, err)
		gt.False(t, created)
		gt.Number(t, len(s.find(http.MethodPost, "/api/v3/repos/owner/repo/releases"))).Equal(0)
	})
}

func TestClient_ReleaseForCommit(t *testing.T) {
	s := newAPIServer(t)
	s.handle("GET /api/v3/repos/owner/repo/releases", http.StatusOK, []map[string]any{
		{"tag_name": "1.1.1", "target_commitish": "hotfix99"},
		{"tag_name": "1.1.0", "target_commitish": "abc123"},
		{"tag_name": "1.0.0", "target_commitish": "000aaa"},
		{"tag_name": "1.2.0", "target_commitish": "abc123", "draft": true},
	})

	ctx := context.Background()
	client := s.client(t)

	tag, err := client.ReleaseForCommit(ctx, "abc123")
	gt.NoError(t, err)
	gt.Value(t, tag).Equal("1.1.0")

	tag, err = client.ReleaseForCommit(ctx, "unknown")
	gt.NoError(t, err)
	gt.Value(t, tag).Equal("")
}

func TestClient_ReleaseNotes(t *testing.T) {
	s := newAPIServer(t)
	s.handle("GET /api/v3/repos/owner/repo/releases/tags/1.1.0", http.StatusOK, map[string]any{
		"id":               7,
		"target_commitish": "abc123",
		"body":             "",
	})
	s.handle("GET /api/v3/repos/owner/repo/releases/tags/9.9.9", http.StatusNotFound, map[string]any{"message": "Not Found"})
	s.handle("PATCH /api/v3/repos/owner/repo/releases/7", http.StatusOK, map[string]any{"id": 7})

	ctx := context.Background()
	client := s.client(t)

	notes, err := client.ReleaseNotes(ctx, model.MustParseVersion("1.1.0"))
	gt.NoError(t, err)
	gt.Value(t, notes).Equal("")

	gt.NoError(t, client.UpdateChangelog(ctx, model.MustParseVersion("1.1.0"), "## 1.1.0\n\n- change"))
	reqs := s.find(http.MethodPatch, "/api/v3/repos/owner/repo/releases/7")
	gt.Number(t, len(reqs)).Equal(1)
	gt.Value(t, reqs[0].body["body"]).Equal("## 1.1.0\n\n- change")

	gt.Error(t, client.UpdateChangelog(ctx, model.MustParseVersion("9.9.9"), "x"))
}

func TestClient_Issues(t *testing.T) {
	s := newAPIServer(t)
	s.handle("POST /api/v3/repos/owner/repo/issues/5/comments", http.StatusCreated, map[string]any{"id": 1})
	s.handle("PATCH /api/v3/repos/owner/repo/issues/5", http.StatusOK, map[string]any{"number": 5})
	s.handle("POST /api/v3/repos/owner/repo/issues/5/labels", http.StatusOK, []map[string]any{{"name": "release"}})

	ctx := context.Background()
	client := s.client(t)

	gt.NoError(t, client.AddComment(ctx, 5, []string{"first", "second"}))
	gt.NoError(t, client.AddComment(ctx, 5, nil))
	gt.NoError(t, client.CloseIssue(ctx, 5))
	gt.NoError(t, client.PutLabelsOnIssue(ctx, 5, []string{"release"}))

	comments := s.find(http.MethodPost, "/api/v3/repos/owner/repo/issues/5/comments")
	gt.Number(t, len(comments)).Equal(1)
	gt.Value(t, comments[0].body["body"]).Equal("first\n\nsecond")

	edits := s.find(http.MethodPatch, "/api/v3/repos/owner/repo/issues/5")
	gt.Number(t, len(edits)).Equal(1)
	gt.Value(t, edits[0].body["state"]).Equal("closed")

	gt.Number(t, len(s.find(http.MethodPost, "/api/v3/repos/owner/repo/issues/5/labels"))).Equal(1)
}

func TestClient_Configuration(t *testing.T) {
	t.Run("file exists", func(t *testing.T) {
		s := newAPIServer(t)
		s.handle("GET /api/v3/repos/owner/repo/contents/release-conf.yaml", http.StatusOK, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte("trigger_on_issue: true\n")),
		})

		data, err := s.client(t).Configuration(context.Background())
		gt.NoError(t, err)
		gt.Value(t, string(data)).Equal("trigger_on_issue: true\n")
	})

	t.Run("missing file is empty policy", func(t *testing.T) {
		s := newAPIServer(t)
		s.handle("GET /api/v3/repos/owner/repo/contents/release-conf.yaml", http.StatusNotFound, map[string]any{"message": "Not Found"})

		data, err := s.client(t).Configuration(context.Background())
		gt.NoError(t, err)
		gt.Number(t, len(data)).Equal(0)
	})

	t.Run("server error", func(t *testing.T) {
		s := newAPIServer(t)
		s.handle("GET /api/v3/repos/owner/repo/contents/release-conf.yaml", http.StatusInternalServerError, map[string]any{"message": "boom"})

		_, err := s.client(t).Configuration(context.Background())
		gt.Error(t, err)
	})
}

func TestClient_UserContact(t *testing.T) {
	t.Run("from API", func(t *testing.T) {
		s := newAPIServer(t)
		s.handle("GET /api/v3/user", http.StatusOK, map[string]any{"login": "octocat", "name": "", "email": ""})

		contact, err := s.client(t).UserContact(context.Background())
		gt.NoError(t, err)
		gt.Value(t, contact.Name).Equal("octocat")
		gt.Value(t, contact.Email).Equal("octocat@users.noreply.github.com")
	})

	t.Run("fixed identity", func(t *testing.T) {
		s := newAPIServer(t)
		contact, err := s.client(t, githubinfra.WithIdentity("Bot", "bot@example.com")).UserContact(context.Background())
		gt.NoError(t, err)
		gt.Value(t, *contact).Equal(model.UserContact{Name: "Bot", Email: "bot@example.com"})
		gt.Number(t, len(s.find(http.MethodGet, "/api/v3/user"))).Equal(0)
	})
}

// dirRepo is a Repository backed by a plain directory
type dirRepo struct {
	dir      string
	branches []string
	commits  []string
	pushed   []string
	checkout []string
}

func (x *dirRepo) Dir() string                         { return x.dir }
func (x *dirRepo) Pull(ctx context.Context) error      { return nil }
func (x *dirRepo) FetchTags(ctx context.Context) error { return nil }
func (x *dirRepo) Cleanup() error                      { return nil }

func (x *dirRepo) Log(ctx context.Context, from, to string) ([]string, error) {
	return []string{"Add feature"}, nil
}

func (x *dirRepo) Checkout(ctx context.Context, ref string) error {
	x.checkout = append(x.checkout, ref)
	return nil
}

func (x *dirRepo) CreateBranch(ctx context.Context, branch string) error {
	x.branches = append(x.branches, branch)
	return nil
}

func (x *dirRepo) CommitAll(ctx context.Context, message string, author model.CommitAuthor) error {
	x.commits = append(x.commits, message+" by "+author.Name)
	return nil
}

func (x *dirRepo) Push(ctx context.Context, branch string) error {
	x.pushed = append(x.pushed, branch)
	return nil
}

func newPendingPR() *model.PendingPR {
	return &model.PendingPR{
		Version:         model.MustParseVersion("1.1.0"),
		PreviousVersion: model.MustParseVersion("1.0.0"),
		IssueNumber:     5,
		VersionFiles:    []string{"setup.py", "*/__init__.py"},
		AuthorName:      "Bot",
		AuthorEmail:     "bot@example.com",
	}
}

func TestClient_MakeReleasePR(t *testing.T) {
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "setup.py"), []byte("setup(\n    name=\"pkg\",\n    version=\"1.0.0\",\n)\n"), 0o644))
	gt.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg"), 0o755))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "pkg", "__init__.py"), []byte("__version__ = '1.0.0'\n"), 0o644))

	s := newAPIServer(t)
	s.handle("GET /api/v3/repos/owner/repo/pulls", http.StatusOK, []map[string]any{})
	s.handle("GET /api/v3/repos/owner/repo", http.StatusOK, map[string]any{"default_branch": "main"})
	s.handle("POST /api/v3/repos/owner/repo/pulls", http.StatusCreated, map[string]any{
		"number":   101,
		"html_url": "https://github.com/owner/repo/pull/101",
	})

	repo := &dirRepo{dir: dir}
	url, err := s.client(t, githubinfra.WithRepository(repo)).MakeReleasePR(context.Background(), newPendingPR())
	gt.NoError(t, err)
	gt.Value(t, url).Equal("https://github.com/owner/repo/pull/101")

	setup, err := os.ReadFile(filepath.Join(dir, "setup.py"))
	gt.NoError(t, err)
	gt.String(t, string(setup)).Contains(`version="1.1.0",`)

	initPy, err := os.ReadFile(filepath.Join(dir, "pkg", "__init__.py"))
	gt.NoError(t, err)
	gt.Value(t, string(initPy)).Equal("__version__ = '1.1.0'\n")

	gt.Value(t, repo.branches).Equal([]string{"1.1.0-release"})
	gt.Value(t, repo.commits).Equal([]string{"1.1.0 release by Bot"})
	gt.Value(t, repo.pushed).Equal([]string{"1.1.0-release"})
	gt.Value(t, repo.checkout).Equal([]string{"main", "main"})

	reqs := s.find(http.MethodPost, "/api/v3/repos/owner/repo/pulls")
	gt.Number(t, len(reqs)).Equal(1)
	gt.Value(t, reqs[0].body["title"]).Equal("1.1.0 release")
	gt.Value(t, reqs[0].body["head"]).Equal("1.1.0-release")
	gt.Value(t, reqs[0].body["base"]).Equal("main")
	gt.String(t, reqs[0].body["body"].(string)).Contains("- Add feature")
	gt.String(t, reqs[0].body["body"].(string)).Contains("#5")
}

func TestClient_MakeReleasePR_ReusesOpenPullRequest(t *testing.T) {
	s := newAPIServer(t)
	s.handle("GET /api/v3/repos/owner/repo/pulls", http.StatusOK, []map[string]any{
		{"number": 100, "html_url": "https://github.com/owner/repo/pull/100"},
	})

	repo := &dirRepo{dir: t.TempDir()}
	url, err := s.client(t, githubinfra.WithRepository(repo)).MakeReleasePR(context.Background(), newPendingPR())
	gt.NoError(t, err)
	gt.Value(t, url).Equal("https://github.com/owner/repo/pull/100")
	gt.Number(t, len(repo.branches)).Equal(0)
	gt.Number(t, len(s.find(http.MethodPost, "/api/v3/repos/owner/repo/pulls"))).Equal(0)
}

func TestClient_MakeReleasePR_NoVersionFile(t *testing.T) {
	s := newAPIServer(t)
	s.handle("GET /api/v3/repos/owner/repo/pulls", http.StatusOK, []map[string]any{})
	s.handle("GET /api/v3/repos/owner/repo", http.StatusOK, map[string]any{"default_branch": "main"})

	repo := &dirRepo{dir: t.TempDir()}
	_, err := s.client(t, githubinfra.WithRepository(repo)).MakeReleasePR(context.Background(), newPendingPR())
	gt.Error(t, err)
	gt.Number(t, len(repo.pushed)).Equal(0)
}

func TestClient_MakeReleasePR_WithoutRepository(t *testing.T) {
	s := newAPIServer(t)
	_, err := s.client(t).MakeReleasePR(context.Background(), newPendingPR())
	gt.Error(t, err)
}
