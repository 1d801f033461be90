package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

const testPageSize = 2

type fakeRelease struct {
	tag    string
	commit string
	body   string
}

type fakeComment struct {
	number   int
	messages []string
}

// fakeHosting is an in-memory code hosting platform. Issues and pull requests
// are kept in ascending creation order and paginated like the GraphQL API.
type fakeHosting struct {
	mu sync.Mutex

	config   []byte
	releases []fakeRelease
	issues   []model.IssueNode
	pulls    []model.PullRequestNode
	contact  model.UserContact

	configErr  error
	releaseErr error
	prErr      error
	commentErr error
	labelErr   error
	contactErr error
	closeErr   error

	madeReleases   []model.ReleaseRequest
	madePRs        []model.PendingPR
	changelogs     []string
	comments       []fakeComment
	closedIssues   []int
	labeledIssues  map[int][]string
	contactQueries int
}

var _ interfaces.HostingClient = (*fakeHosting)(nil)

func newFakeHosting(config string) *fakeHosting {
	return &fakeHosting{
		config:        []byte(config),
		labeledIssues: map[int][]string{},
		contact:       model.UserContact{Name: "Release Bot", Email: "bot@example.com"},
	}
}

func (x *fakeHosting) addRelease(tag, commit, body string) {
	x.releases = append(x.releases, fakeRelease{tag: tag, commit: commit, body: body})
}

func (x *fakeHosting) addIssue(number int, title, association string) {
	x.issues = append(x.issues, model.IssueNode{
		ID:                "I_" + strconv.Itoa(number),
		Number:            number,
		Title:             title,
		AuthorAssociation: association,
	})
}

func (x *fakeHosting) addMergedPR(number int, title, oid string) {
	x.pulls = append(x.pulls, model.PullRequestNode{
		ID:     "PR_" + strconv.Itoa(number),
		Number: number,
		Title:  title,
		MergeCommit: &model.MergeCommit{
			OID:    oid,
			Author: model.CommitAuthor{Name: "Merger", Email: "merger@example.com"},
		},
	})
}

func (x *fakeHosting) addClosedPR(number int, title string) {
	x.pulls = append(x.pulls, model.PullRequestNode{
		ID:     "PR_" + strconv.Itoa(number),
		Number: number,
		Title:  title,
	})
}

func (x *fakeHosting) sideEffects() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	n := len(x.madeReleases) + len(x.madePRs) + len(x.changelogs) + len(x.comments) + len(x.closedIssues)
	for _, labels := range x.labeledIssues {
		n += len(labels)
	}
	return n
}

func (x *fakeHosting) LatestRelease(ctx context.Context) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	var latest string
	var latestVersion model.Version
	for _, r := range x.releases {
		v, err := model.CoerceVersion(r.tag)
		if err != nil {
			continue
		}
		if latest == "" || latestVersion.LessThan(v) {
			latest, latestVersion = r.tag, v
		}
	}
	return latest, nil
}

// page returns the items right before cursor, which is an index rendered as
// a string. An empty cursor means the end of the list.
func page(total int, cursor string) (int, int) {
	end := total
	if cursor != "" {
		end, _ = strconv.Atoi(cursor)
	}
	start := max(end-testPageSize, 0)
	return start, end
}

func (x *fakeHosting) OpenIssues(ctx context.Context, cursor string, direction model.Direction) ([]model.IssueEdge, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	var open []model.IssueNode
	for _, issue := range x.issues {
		if !slices.Contains(x.closedIssues, issue.Number) {
			open = append(open, issue)
		}
	}

	start, end := page(len(open), cursor)
	var edges []model.IssueEdge
	for i := start; i < end; i++ {
		edges = append(edges, model.IssueEdge{Cursor: strconv.Itoa(i), Node: open[i]})
	}
	return edges, nil
}

func (x *fakeHosting) ClosedPullRequests(ctx context.Context, cursor string, direction model.Direction) ([]model.PullRequestEdge, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	start, end := page(len(x.pulls), cursor)
	var edges []model.PullRequestEdge
	for i := start; i < end; i++ {
		edges = append(edges, model.PullRequestEdge{Cursor: strconv.Itoa(i), Node: x.pulls[i]})
	}
	return edges, nil
}

func (x *fakeHosting) MakeReleasePR(ctx context.Context, pr *model.PendingPR) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.prErr != nil {
		return "", x.prErr
	}
	x.madePRs = append(x.madePRs, *pr)
	return fmt.Sprintf("https://github.com/owner/repo/pull/%d", 100+len(x.madePRs)), nil
}

func (x *fakeHosting) MakeNewRelease(ctx context.Context, req *model.ReleaseRequest) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.releaseErr != nil {
		return false, x.releaseErr
	}
	x.madeReleases = append(x.madeReleases, *req)
	x.releases = append(x.releases, fakeRelease{tag: req.Tag(), commit: req.Commitish, body: req.Notes})
	req.ReleaseURL = "https://github.com/owner/repo/releases/tag/" + req.Tag()
	return true, nil
}

func (x *fakeHosting) ReleaseForCommit(ctx context.Context, commit string) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	var found string
	var foundVersion model.Version
	for _, r := range x.releases {
		if r.commit != commit {
			continue
		}
		v, err := model.CoerceVersion(r.tag)
		if err != nil {
			continue
		}
		if found == "" || foundVersion.LessThan(v) {
			found, foundVersion = r.tag, v
		}
	}
	return found, nil
}

func (x *fakeHosting) ReleaseNotes(ctx context.Context, version model.Version) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, r := range x.releases {
		if r.tag == version.String() {
			return r.body, nil
		}
	}
	return "", errors.New("release not found")
}

func (x *fakeHosting) UpdateChangelog(ctx context.Context, version model.Version, notes string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for i := range x.releases {
		if x.releases[i].tag == version.String() {
			x.releases[i].body = notes
			x.changelogs = append(x.changelogs, version.String())
			return nil
		}
	}
	return errors.New("release not found")
}

func (x *fakeHosting) AddComment(ctx context.Context, number int, messages []string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.commentErr != nil {
		return x.commentErr
	}
	x.comments = append(x.comments, fakeComment{number: number, messages: slices.Clone(messages)})
	return nil
}

func (x *fakeHosting) CloseIssue(ctx context.Context, number int) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closeErr != nil {
		return x.closeErr
	}
	x.closedIssues = append(x.closedIssues, number)
	return nil
}

func (x *fakeHosting) PutLabelsOnIssue(ctx context.Context, number int, labels []string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.labelErr != nil {
		return x.labelErr
	}
	x.labeledIssues[number] = append(x.labeledIssues[number], labels...)
	return nil
}

func (x *fakeHosting) UserContact(ctx context.Context) (*model.UserContact, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.contactQueries++
	if x.contactErr != nil {
		return nil, x.contactErr
	}
	contact := x.contact
	return &contact, nil
}

func (x *fakeHosting) Configuration(ctx context.Context) ([]byte, error) {
	if x.configErr != nil {
		return nil, x.configErr
	}
	return x.config, nil
}

// fakeRepo is a local checkout that only records what was asked of it
type fakeRepo struct {
	pullErr  error
	pulls    int
	fetches  int
	checkout string
	commits  []string
	logCalls [][2]string
	cleaned  bool
}

var _ interfaces.Repository = (*fakeRepo)(nil)

func (x *fakeRepo) Dir() string { return "/tmp/releasebot-test" }

func (x *fakeRepo) Pull(ctx context.Context) error {
	x.pulls++
	return x.pullErr
}

func (x *fakeRepo) FetchTags(ctx context.Context) error {
	x.fetches++
	return nil
}

func (x *fakeRepo) Checkout(ctx context.Context, ref string) error {
	x.checkout = ref
	return nil
}

func (x *fakeRepo) CreateBranch(ctx context.Context, branch string) error { return nil }

func (x *fakeRepo) CommitAll(ctx context.Context, message string, author model.CommitAuthor) error {
	return nil
}

func (x *fakeRepo) Push(ctx context.Context, branch string) error { return nil }

func (x *fakeRepo) Log(ctx context.Context, from, to string) ([]string, error) {
	x.logCalls = append(x.logCalls, [2]string{from, to})
	return x.commits, nil
}

func (x *fakeRepo) Cleanup() error {
	x.cleaned = true
	return nil
}

// fakeIndex publishes whatever the repository has checked out
type fakeIndex struct {
	repo     *fakeRepo
	latest   string
	err      error
	uploads  []string
	files    []string
	queryErr error
}

var _ interfaces.PackageIndex = (*fakeIndex)(nil)

func (x *fakeIndex) LatestVersion(ctx context.Context) (string, error) {
	return x.latest, x.queryErr
}

func (x *fakeIndex) Release(ctx context.Context, dir string) ([]string, error) {
	if x.err != nil {
		return nil, x.err
	}
	x.uploads = append(x.uploads, x.repo.checkout)
	x.latest = x.repo.checkout
	return x.files, nil
}

type fakeDownstream struct {
	calls   []model.ReleaseRequest
	success bool
	err     error
	builds  []string
}

var _ interfaces.DownstreamTrigger = (*fakeDownstream)(nil)

func (x *fakeDownstream) Release(ctx context.Context, req *model.ReleaseRequest) (bool, error) {
	x.calls = append(x.calls, *req)
	return x.success, x.err
}

func (x *fakeDownstream) Builds() []string { return x.builds }

type fakeJournal struct {
	mu      sync.Mutex
	entries []*model.JournalEntry
}

var _ interfaces.Journal = (*fakeJournal)(nil)

func (x *fakeJournal) Record(ctx context.Context, entry *model.JournalEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = append(x.entries, entry)
	return nil
}

func (x *fakeJournal) List(ctx context.Context, limit int) ([]*model.JournalEntry, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return slices.Clone(x.entries), nil
}

type fakeArchive struct {
	stored map[string][]string
}

func (x *fakeArchive) Store(ctx context.Context, version model.Version, files []string) error {
	if x.stored == nil {
		x.stored = map[string][]string{}
	}
	x.stored[version.String()] = files
	return nil
}

type fakeChat struct {
	posted chan []string
}

func (x *fakeChat) Post(ctx context.Context, messages []string) error {
	x.posted <- messages
	return nil
}
