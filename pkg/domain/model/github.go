package model

// Direction of a cursor walk over GitHub connections
type Direction string

const (
	// DirectionBefore fetches the page that ends right before the cursor
	DirectionBefore Direction = "before"
	// DirectionAfter fetches the page that starts right after the cursor
	DirectionAfter Direction = "after"
)

// IssueNode is an open issue as seen by the issue discovery phase
type IssueNode struct {
	ID                string
	Number            int
	Title             string
	AuthorAssociation string
}

// IssueEdge is an IssueNode with its pagination cursor
type IssueEdge struct {
	Cursor string
	Node   IssueNode
}

// CommitAuthor is the git author of a commit
type CommitAuthor struct {
	Name  string
	Email string
}

// MergeCommit is the commit created when a pull request was merged
type MergeCommit struct {
	OID    string
	Author CommitAuthor
}

// PullRequestNode is a closed pull request as seen by the pull request
// discovery phase
type PullRequestNode struct {
	ID     string
	Number int
	Title  string

	// MergeCommit is nil when the pull request was closed without merging
	MergeCommit *MergeCommit
}

// PullRequestEdge is a PullRequestNode with its pagination cursor
type PullRequestEdge struct {
	Cursor string
	Node   PullRequestNode
}

// UserContact is the identity of the account the bot acts as
type UserContact struct {
	Name  string
	Email string
}
