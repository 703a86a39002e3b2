// Package github loads GitHub issues as the free-text context of a prompt
package github

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/go-github/v72/github"
	"golang.org/x/oauth2"
)

var issueRefPattern = regexp.MustCompile(`^([\w.-]+)/([\w.-]+)#(\d+)$`)

// IssueRef identifies an issue as owner/repo#number
type IssueRef struct {
	Owner  string
	Repo   string
	Number int
}

func (r IssueRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// ParseIssueRef parses a reference of the form owner/repo#number
func ParseIssueRef(ref string) (IssueRef, error) {
	m := issueRefPattern.FindStringSubmatch(strings.TrimSpace(ref))
	if m == nil {
		return IssueRef{}, fmt.Errorf("invalid issue reference '%s', expected owner/repo#number", ref)
	}
	number, err := strconv.Atoi(m[3])
	if err != nil || number <= 0 {
		return IssueRef{}, fmt.Errorf("invalid issue number in '%s'", ref)
	}
	return IssueRef{Owner: m[1], Repo: m[2], Number: number}, nil
}

// Issue is the subset of a GitHub issue used as prompt context
type Issue struct {
	Ref      IssueRef
	Title    string
	Body     string
	URL      string
	Labels   []string
	Comments []Comment
}

// Comment is one comment on an issue
type Comment struct {
	Author string
	Body   string
}

// NewClient creates a GitHub client. Without a token, requests are unauthenticated and subject to lower rate limits.
func NewClient(ctx context.Context, token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	tokenSource := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	return github.NewClient(oauth2.NewClient(ctx, tokenSource))
}

// GetIssue fetches an issue and all of its comments
func GetIssue(ctx context.Context, client *github.Client, ref IssueRef) (*Issue, error) {
	gi, _, err := client.Issues.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to get issue %s: %w", ref, err)
	}

	issue := &Issue{
		Ref:   ref,
		Title: gi.GetTitle(),
		Body:  gi.GetBody(),
		URL:   gi.GetHTMLURL(),
	}
	for _, label := range gi.Labels {
		issue.Labels = append(issue.Labels, label.GetName())
	}

	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		comments, resp, err := client.Issues.ListComments(ctx, ref.Owner, ref.Repo, ref.Number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list comments of %s: %w", ref, err)
		}
		for _, c := range comments {
			issue.Comments = append(issue.Comments, Comment{Author: c.GetUser().GetLogin(), Body: c.GetBody()})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return issue, nil
}

// Context formats the issue as the free-text context of a prompt
func (i *Issue) Context() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "GitHub issue %s: %s\n", i.Ref, i.Title)
	if i.URL != "" {
		fmt.Fprintf(&sb, "URL: %s\n", i.URL)
	}
	if len(i.Labels) > 0 {
		fmt.Fprintf(&sb, "Labels: %s\n", strings.Join(i.Labels, ", "))
	}
	if body := strings.TrimSpace(i.Body); body != "" {
		fmt.Fprintf(&sb, "\n%s\n", body)
	}
	for _, c := range i.Comments {
		fmt.Fprintf(&sb, "\nComment by @%s:\n%s\n", c.Author, strings.TrimSpace(c.Body))
	}
	return sb.String()
}

// IssueContext fetches the issue named by ref and formats it as prompt context
func IssueContext(ctx context.Context, client *github.Client, ref string) (string, error) {
	parsed, err := ParseIssueRef(ref)
	if err != nil {
		return "", err
	}
	issue, err := GetIssue(ctx, client, parsed)
	if err != nil {
		return "", err
	}
	return issue.Context(), nil
}
