package github

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
	"github.com/shurcooL/githubv4"
)

type issueConnection struct {
	Edges []struct {
		Cursor githubv4.String
		Node   struct {
			ID                githubv4.ID
			Number            githubv4.Int
			Title             githubv4.String
			AuthorAssociation githubv4.String
		}
	}
}

type issuesBeforeQuery struct {
	Repository struct {
		Issues issueConnection `graphql:"issues(states: OPEN, last: $count, before: $cursor)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

type issuesAfterQuery struct {
	Repository struct {
		Issues issueConnection `graphql:"issues(states: OPEN, first: $count, after: $cursor)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

type pullRequestConnection struct {
	Edges []struct {
		Cursor githubv4.String
		Node   struct {
			ID          githubv4.ID
			Number      githubv4.Int
			Title       githubv4.String
			MergeCommit *struct {
				OID    githubv4.GitObjectID `graphql:"oid"`
				Author struct {
					Name  githubv4.String
					Email githubv4.String
				}
			}
		}
	}
}

type pullRequestsBeforeQuery struct {
	Repository struct {
		PullRequests pullRequestConnection `graphql:"pullRequests(states: [CLOSED, MERGED], last: $count, before: $cursor)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

type pullRequestsAfterQuery struct {
	Repository struct {
		PullRequests pullRequestConnection `graphql:"pullRequests(states: [CLOSED, MERGED], first: $count, after: $cursor)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

func (c *Client) pageVariables(cursor string) map[string]any {
	vars := map[string]any{
		"owner":  githubv4.String(c.owner),
		"name":   githubv4.String(c.name),
		"count":  githubv4.Int(c.pageSize),
		"cursor": (*githubv4.String)(nil),
	}
	if cursor != "" {
		vars["cursor"] = githubv4.NewString(githubv4.String(cursor))
	}
	return vars
}

// OpenIssues implements interfaces.HostingClient
func (c *Client) OpenIssues(ctx context.Context, cursor string, direction model.Direction) ([]model.IssueEdge, error) {
	var conn issueConnection

	switch direction {
	case model.DirectionAfter:
		var q issuesAfterQuery
		if err := c.graphql.Query(ctx, &q, c.pageVariables(cursor)); err != nil {
			return nil, goerr.Wrap(err, "failed to query open issues", goerr.V("cursor", cursor))
		}
		conn = q.Repository.Issues
	default:
		var q issuesBeforeQuery
		if err := c.graphql.Query(ctx, &q, c.pageVariables(cursor)); err != nil {
			return nil, goerr.Wrap(err, "failed to query open issues", goerr.V("cursor", cursor))
		}
		conn = q.Repository.Issues
	}

	edges := make([]model.IssueEdge, 0, len(conn.Edges))
	for _, e := range conn.Edges {
		edges = append(edges, model.IssueEdge{
			Cursor: string(e.Cursor),
			Node: model.IssueNode{
				ID:                fmt.Sprint(e.Node.ID),
				Number:            int(e.Node.Number),
				Title:             string(e.Node.Title),
				AuthorAssociation: string(e.Node.AuthorAssociation),
			},
		})
	}
	return edges, nil
}

// ClosedPullRequests implements interfaces.HostingClient
func (c *Client) ClosedPullRequests(ctx context.Context, cursor string, direction model.Direction) ([]model.PullRequestEdge, error) {
	var conn pullRequestConnection

	switch direction {
	case model.DirectionAfter:
		var q pullRequestsAfterQuery
		if err := c.graphql.Query(ctx, &q, c.pageVariables(cursor)); err != nil {
			return nil, goerr.Wrap(err, "failed to query pull requests", goerr.V("cursor", cursor))
		}
		conn = q.Repository.PullRequests
	default:
		var q pullRequestsBeforeQuery
		if err := c.graphql.Query(ctx, &q, c.pageVariables(cursor)); err != nil {
			return nil, goerr.Wrap(err, "failed to query pull requests", goerr.V("cursor", cursor))
		}
		conn = q.Repository.PullRequests
	}

	edges := make([]model.PullRequestEdge, 0, len(conn.Edges))
	for _, e := range conn.Edges {
		node := model.PullRequestNode{
			ID:     fmt.Sprint(e.Node.ID),
			Number: int(e.Node.Number),
			Title:  string(e.Node.Title),
		}
		if mc := e.Node.MergeCommit; mc != nil {
			node.MergeCommit = &model.MergeCommit{
				OID: string(mc.OID),
				Author: model.CommitAuthor{
					Name:  string(mc.Author.Name),
					Email: string(mc.Author.Email),
				},
			}
		}
		edges = append(edges, model.PullRequestEdge{Cursor: string(e.Cursor), Node: node})
	}
	return edges, nil
}
