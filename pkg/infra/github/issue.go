package github

import (
	"context"
	"strings"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
)

// AddComment implements interfaces.HostingClient. Messages become one
// comment, one paragraph each.
func (c *Client) AddComment(ctx context.Context, number int, messages []string) error {
	if len(messages) == 0 {
		return nil
	}

	body := strings.Join(messages, "\n\n")
	if _, _, err := c.rest.Issues.CreateComment(ctx, c.owner, c.name, number, &github.IssueComment{
		Body: github.Ptr(body),
	}); err != nil {
		return goerr.Wrap(err, "failed to create comment", goerr.V("number", number))
	}
	return nil
}

// CloseIssue implements interfaces.HostingClient
func (c *Client) CloseIssue(ctx context.Context, number int) error {
	if _, _, err := c.rest.Issues.Edit(ctx, c.owner, c.name, number, &github.IssueRequest{
		State: github.Ptr("closed"),
	}); err != nil {
		return goerr.Wrap(err, "failed to close issue", goerr.V("number", number))
	}
	return nil
}

// PutLabelsOnIssue implements interfaces.HostingClient
func (c *Client) PutLabelsOnIssue(ctx context.Context, number int, labels []string) error {
	if _, _, err := c.rest.Issues.AddLabelsToIssue(ctx, c.owner, c.name, number, labels); err != nil {
		return goerr.Wrap(err, "failed to add labels",
			goerr.V("number", number),
			goerr.V("labels", labels))
	}
	return nil
}
