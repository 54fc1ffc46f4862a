package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/izumikawa/forum-watch/app/database"
	"github.com/izumikawa/forum-watch/app/forum"
	"github.com/izumikawa/forum-watch/app/post"
)

type fakeLister struct {
	posts []*post.Post
	err   error
}

func (f *fakeLister) LatestPosts(ctx context.Context, limit int) ([]*post.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.posts) > limit {
		return f.posts[:limit], nil
	}
	return f.posts, nil
}

type fakeSession struct {
	loggedIn   bool
	loginErr   error
	loginCalls int
}

func (f *fakeSession) CheckLoginStatus(ctx context.Context) bool {
	return f.loggedIn
}

func (f *fakeSession) Login(ctx context.Context) error {
	f.loginCalls++
	if f.loginErr != nil {
		return f.loginErr
	}
	f.loggedIn = true
	return nil
}

type fakeNotifier struct {
	sent      []int
	adminMsgs []string
	sendErr   error
}

func (f *fakeNotifier) SendPost(ctx context.Context, p *post.Post) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, p.ID)
	return nil
}

func (f *fakeNotifier) SendAdminMessage(ctx context.Context, text string) error {
	f.adminMsgs = append(f.adminMsgs, text)
	return nil
}

type fakeRepo struct {
	processed map[int]bool
}

var _ database.PostRepository = (*fakeRepo)(nil)

func newFakeRepo(ids ...int) *fakeRepo {
	r := &fakeRepo{processed: make(map[int]bool)}
	for _, id := range ids {
		r.processed[id] = true
	}
	return r
}

func (f *fakeRepo) IsProcessed(postID int) (bool, error) {
	return f.processed[postID], nil
}

func (f *fakeRepo) MarkProcessed(p database.ProcessedPost) error {
	f.processed[p.ID] = true
	return nil
}

func (f *fakeRepo) LastPostID() (int, error) { return 0, nil }

func (f *fakeRepo) GetCount() (int, error) { return len(f.processed), nil }

func (f *fakeRepo) GetRecent(limit int) ([]database.ProcessedPost, error) { return nil, nil }

func (f *fakeRepo) Prune(keep int) (int64, error) { return 0, nil }

func newCheckTask(lister PostLister, session SessionManager, notifier Notifier, repo database.PostRepository, rules *post.Rules) *CheckPostsTask {
	return NewCheckPostsTask(lister, session, notifier, repo, post.NewFilterer(), rules, 20)
}

func TestCheckPostsTask_SendsNewPosts(t *testing.T) {
	lister := &fakeLister{posts: []*post.Post{
		post.New(1, "Old post", "https://forum.test/t1-1-1", "alice", nil),
		post.New(2, "New post", "https://forum.test/t2-1-1", "bob", nil),
	}}
	session := &fakeSession{loggedIn: true}
	notifier := &fakeNotifier{}
	repo := newFakeRepo(1)

	task := newCheckTask(lister, session, notifier, repo, &post.Rules{})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(notifier.sent) != 1 || notifier.sent[0] != 2 {
		t.Errorf("Expected only post 2 to be sent, got %v", notifier.sent)
	}

	if !repo.processed[2] {
		t.Errorf("Sent post should be marked processed")
	}
}

func TestCheckPostsTask_FiltersPosts(t *testing.T) {
	lister := &fakeLister{posts: []*post.Post{
		post.New(3, "广告贴", "https://forum.test/t3-1-1", "spammer", nil),
	}}
	session := &fakeSession{loggedIn: true}
	notifier := &fakeNotifier{}
	repo := newFakeRepo()

	rules := &post.Rules{Filters: []post.Filter{
		{Field: "title", Excludes: []string{"广告"}},
	}}

	task := newCheckTask(lister, session, notifier, repo, rules)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(notifier.sent) != 0 {
		t.Errorf("Filtered post should not be sent, got %v", notifier.sent)
	}

	// Filtered posts are still marked so they are not re-evaluated.
	if !repo.processed[3] {
		t.Errorf("Filtered post should be marked processed")
	}
}

func TestCheckPostsTask_LogsInWhenSessionExpired(t *testing.T) {
	lister := &fakeLister{}
	session := &fakeSession{loggedIn: false}
	notifier := &fakeNotifier{}

	task := newCheckTask(lister, session, notifier, newFakeRepo(), &post.Rules{})

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if session.loginCalls != 1 {
		t.Errorf("Expected one login attempt, got %d", session.loginCalls)
	}
}

func TestCheckPostsTask_CaptchaNotifiesAdmin(t *testing.T) {
	lister := &fakeLister{}
	session := &fakeSession{loggedIn: false, loginErr: &forum.CaptchaError{}}
	notifier := &fakeNotifier{}

	task := newCheckTask(lister, session, notifier, newFakeRepo(), &post.Rules{})

	err := task.Execute(context.Background())
	if err == nil {
		t.Fatal("Expected error when login hits a captcha")
	}

	if len(notifier.adminMsgs) != 1 {
		t.Errorf("Expected one admin notification, got %d", len(notifier.adminMsgs))
	}
}

func TestCheckPostsTask_SendFailureLeavesPostUnprocessed(t *testing.T) {
	lister := &fakeLister{posts: []*post.Post{
		post.New(5, "Post", "https://forum.test/t5-1-1", "alice", nil),
	}}
	session := &fakeSession{loggedIn: true}
	notifier := &fakeNotifier{sendErr: errors.New("telegram down")}
	repo := newFakeRepo()

	task := newCheckTask(lister, session, notifier, repo, &post.Rules{})

	if err := task.Execute(context.Background()); err == nil {
		t.Fatal("Expected error when sending fails")
	}

	// Delivery is retried on the next run, so the post stays unmarked.
	if repo.processed[5] {
		t.Errorf("Unsent post should not be marked processed")
	}
}

func TestCheckPostsTask_RespectsLimit(t *testing.T) {
	lister := &fakeLister{posts: []*post.Post{
		post.New(1, "a", "https://forum.test/t1-1-1", "x", nil),
		post.New(2, "b", "https://forum.test/t2-1-1", "x", nil),
	}}
	session := &fakeSession{loggedIn: true}
	notifier := &fakeNotifier{}
	repo := newFakeRepo(2)

	task := NewCheckPostsTask(lister, session, notifier, repo, post.NewFilterer(), &post.Rules{}, 1)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(notifier.sent) != 1 || notifier.sent[0] != 1 {
		t.Errorf("Expected only the first post to be sent, got %v", notifier.sent)
	}
}
