package store

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tourismcam/internal/client"
	"tourismcam/internal/models"
)

// PostsStorageKey is where liked and saved membership is persisted.
const PostsStorageKey = "posts-storage"

// DefaultPageSize is used when a fetch does not name a limit.
const DefaultPageSize = 20

// PostsState is a deep-copied snapshot of the posts store.
type PostsState struct {
	Posts      []*models.Post
	Pagination models.Pagination
	IsLoading  bool
	Error      string

	CurrentPost *models.Post

	UserPosts           []*models.Post
	UserPostsPagination models.Pagination

	SearchQuery      string
	SearchResults    []*models.Post
	SearchPagination models.Pagination
	IsSearching      bool
	SearchError      string

	LikedPosts IDSet
	SavedPosts IDSet
	Comments   map[uint][]*models.Comment
}

type persistedPosts struct {
	LikedPosts IDSet `json:"liked_posts"`
	SavedPosts IDSet `json:"saved_posts"`
}

// PostsStore caches feed, search and user lists and reconciles likes,
// saves and comments with the server.
type PostsStore struct {
	client  *client.Client
	persist Persister
	viewer  func() *models.User

	mu        sync.Mutex
	state     PostsState
	feedGen   uint64
	searchGen uint64
	listeners map[int]func(PostsState)
	nextID    int
}

// NewPostsStore rehydrates liked and saved sets. viewer returns the
// signed-in user and may be nil.
func NewPostsStore(c *client.Client, p Persister, viewer func() *models.User) *PostsStore {
	s := &PostsStore{
		client:    c,
		persist:   p,
		viewer:    viewer,
		listeners: make(map[int]func(PostsState)),
		state: PostsState{
			LikedPosts: IDSet{},
			SavedPosts: IDSet{},
			Comments:   make(map[uint][]*models.Comment),
		},
	}
	var saved persistedPosts
	if ok, err := p.Load(PostsStorageKey, &saved); err != nil {
		slog.Warn("discarding unreadable posts storage", "error", err)
	} else if ok {
		if saved.LikedPosts != nil {
			s.state.LikedPosts = saved.LikedPosts
		}
		if saved.SavedPosts != nil {
			s.state.SavedPosts = saved.SavedPosts
		}
	}
	return s
}

func (s *PostsStore) currentViewer() *models.User {
	if s.viewer == nil {
		return nil
	}
	return s.viewer()
}

// Subscribe registers fn for every state change.
func (s *PostsStore) Subscribe(fn func(PostsState)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// State returns a snapshot safe to read without locking.
func (s *PostsStore) State() PostsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func copyPost(p *models.Post) *models.Post {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	cp.RecentComments = append([]*models.Comment(nil), p.RecentComments...)
	return &cp
}

func copyPosts(in []*models.Post) []*models.Post {
	if in == nil {
		return nil
	}
	out := make([]*models.Post, len(in))
	for i, p := range in {
		out[i] = copyPost(p)
	}
	return out
}

func (s *PostsStore) snapshotLocked() PostsState {
	st := s.state
	st.Posts = copyPosts(s.state.Posts)
	st.CurrentPost = copyPost(s.state.CurrentPost)
	st.UserPosts = copyPosts(s.state.UserPosts)
	st.SearchResults = copyPosts(s.state.SearchResults)
	st.LikedPosts = s.state.LikedPosts.Clone()
	st.SavedPosts = s.state.SavedPosts.Clone()
	st.Comments = make(map[uint][]*models.Comment, len(s.state.Comments))
	for id, list := range s.state.Comments {
		st.Comments[id] = append([]*models.Comment(nil), list...)
	}
	return st
}

// update mutates state under the lock, then notifies listeners. The
// callback returns whether liked/saved membership changed.
func (s *PostsStore) update(fn func(st *PostsState) bool) {
	s.mu.Lock()
	membership := fn(&s.state)
	snap := s.snapshotLocked()
	fns := make([]func(PostsState), 0, len(s.listeners))
	for _, l := range s.listeners {
		fns = append(fns, l)
	}
	s.mu.Unlock()

	if membership {
		doc := persistedPosts{LikedPosts: snap.LikedPosts, SavedPosts: snap.SavedPosts}
		if err := s.persist.Save(PostsStorageKey, doc); err != nil {
			slog.Warn("failed to persist posts state", "error", err)
		}
	}
	for _, l := range fns {
		l(snap)
	}
}

// eachCopy applies fn to every cached copy of a post.
func (st *PostsState) eachCopy(postID uint, fn func(p *models.Post)) {
	for _, list := range [][]*models.Post{st.Posts, st.UserPosts, st.SearchResults} {
		for _, p := range list {
			if p.ID == postID {
				fn(p)
			}
		}
	}
	if st.CurrentPost != nil && st.CurrentPost.ID == postID {
		fn(st.CurrentPost)
	}
}

// adoptMembership records the viewer's like and save flags reported by the
// server. Anonymous responses carry no flags and leave the sets alone.
func (s *PostsStore) adoptMembership(st *PostsState, posts ...*models.Post) bool {
	if s.currentViewer() == nil || len(posts) == 0 {
		return false
	}
	for _, p := range posts {
		st.LikedPosts.Set(p.ID, p.IsLiked)
		st.SavedPosts.Set(p.ID, p.IsSaved)
	}
	return true
}

func pageOf(opts client.ListOptions) client.ListOptions {
	if opts.Limit <= 0 {
		opts.Limit = DefaultPageSize
	}
	return opts
}

// FetchPosts replaces the feed. A response to a superseded fetch is dropped.
func (s *PostsStore) FetchPosts(ctx context.Context, opts client.ListOptions) error {
	var gen uint64
	s.update(func(st *PostsState) bool {
		s.feedGen++
		gen = s.feedGen
		st.IsLoading, st.Error = true, ""
		return false
	})

	resp, err := s.client.Posts.List(ctx, pageOf(opts))

	s.update(func(st *PostsState) bool {
		if gen != s.feedGen {
			return false
		}
		st.IsLoading = false
		if err != nil {
			st.Error = client.Message(err)
			return false
		}
		st.Posts, st.Pagination = resp.Posts, resp.Pagination
		return s.adoptMembership(st, resp.Posts...)
	})
	return err
}

// FetchUserPosts replaces the user post list.
func (s *PostsStore) FetchUserPosts(ctx context.Context, userID uint, opts client.ListOptions) error {
	resp, err := s.client.Posts.ByUser(ctx, userID, pageOf(opts))
	s.update(func(st *PostsState) bool {
		if err != nil {
			st.Error = client.Message(err)
			return false
		}
		st.UserPosts, st.UserPostsPagination = resp.Posts, resp.Pagination
		return s.adoptMembership(st, resp.Posts...)
	})
	return err
}

// FetchPost replaces the current post.
func (s *PostsStore) FetchPost(ctx context.Context, id uint) error {
	post, err := s.client.Posts.Get(ctx, id)
	s.update(func(st *PostsState) bool {
		if err != nil {
			st.CurrentPost = nil
			st.Error = client.Message(err)
			return false
		}
		st.CurrentPost = post
		return s.adoptMembership(st, post)
	})
	return err
}

// FetchComments loads a post's comments into the cache.
func (s *PostsStore) FetchComments(ctx context.Context, postID uint) error {
	comments, err := s.client.Comments.List(ctx, postID, 0, 0)
	if err != nil {
		return err
	}
	s.update(func(st *PostsState) bool {
		st.Comments[postID] = comments
		return false
	})
	return nil
}

// ToggleLike adopts the server's count and membership. Nothing changes
// locally when the call fails.
func (s *PostsStore) ToggleLike(ctx context.Context, postID uint) (*models.LikeResponse, error) {
	resp, err := s.client.Likes.Toggle(ctx, postID)
	if err != nil {
		return nil, err
	}
	s.update(func(st *PostsState) bool {
		st.eachCopy(postID, func(p *models.Post) {
			p.LikesCount, p.IsLiked = resp.LikesCount, resp.IsLiked
		})
		st.LikedPosts.Set(postID, resp.IsLiked)
		return true
	})
	return resp, nil
}

// ToggleSave adopts the server's saved flag.
func (s *PostsStore) ToggleSave(ctx context.Context, postID uint) (*models.SaveResponse, error) {
	resp, err := s.client.Posts.ToggleSave(ctx, postID)
	if err != nil {
		return nil, err
	}
	s.update(func(st *PostsState) bool {
		st.eachCopy(postID, func(p *models.Post) { p.IsSaved = resp.IsSaved })
		st.SavedPosts.Set(postID, resp.IsSaved)
		return true
	})
	return resp, nil
}

func setCommentsCount(st *PostsState, postID uint, n int) {
	st.eachCopy(postID, func(p *models.Post) { p.CommentsCount = n })
}

func adjustCommentsCount(st *PostsState, postID uint, delta int) {
	st.eachCopy(postID, func(p *models.Post) {
		p.CommentsCount += delta
		if p.CommentsCount < 0 {
			p.CommentsCount = 0
		}
	})
}

// AddComment shows the comment and the +1 immediately, rolls both back if
// the server refuses, and otherwise adopts the server's comment and count.
func (s *PostsStore) AddComment(ctx context.Context, postID uint, content string) (*models.Comment, error) {
	pending := &models.Comment{
		PostID:    postID,
		Content:   strings.TrimSpace(content),
		CreatedAt: time.Now(),
	}
	if u := s.currentViewer(); u != nil {
		pending.UserID = u.ID
		pending.AttachUser(u)
	}

	s.update(func(st *PostsState) bool {
		adjustCommentsCount(st, postID, 1)
		st.Comments[postID] = append(st.Comments[postID], pending)
		return false
	})

	resp, err := s.client.Comments.Add(ctx, postID, content, nil)
	if err != nil {
		s.update(func(st *PostsState) bool {
			adjustCommentsCount(st, postID, -1)
			st.Comments[postID] = removeComment(st.Comments[postID], pending)
			return false
		})
		return nil, err
	}

	s.update(func(st *PostsState) bool {
		list := st.Comments[postID]
		for i, c := range list {
			if c == pending {
				list[i] = resp.Comment
			}
		}
		setCommentsCount(st, postID, resp.CommentsCount)
		return false
	})
	return resp.Comment, nil
}

// DeleteComment removes the comment and applies -1 immediately, restoring
// both if the server refuses.
func (s *PostsStore) DeleteComment(ctx context.Context, postID, commentID uint) error {
	var (
		removed *models.Comment
		index   int
	)
	s.update(func(st *PostsState) bool {
		list := st.Comments[postID]
		for i, c := range list {
			if c.ID == commentID {
				removed, index = c, i
				st.Comments[postID] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		adjustCommentsCount(st, postID, -1)
		return false
	})

	resp, err := s.client.Comments.Delete(ctx, postID, commentID)
	if err != nil {
		s.update(func(st *PostsState) bool {
			adjustCommentsCount(st, postID, 1)
			if removed != nil {
				st.Comments[postID] = insertComment(st.Comments[postID], index, removed)
			}
			return false
		})
		return err
	}

	s.update(func(st *PostsState) bool {
		setCommentsCount(st, postID, resp.CommentsCount)
		return false
	})
	return nil
}

func removeComment(list []*models.Comment, target *models.Comment) []*models.Comment {
	out := list[:0:0]
	for _, c := range list {
		if c != target {
			out = append(out, c)
		}
	}
	return out
}

func insertComment(list []*models.Comment, i int, c *models.Comment) []*models.Comment {
	if i > len(list) {
		i = len(list)
	}
	out := make([]*models.Comment, 0, len(list)+1)
	out = append(out, list[:i]...)
	out = append(out, c)
	return append(out, list[i:]...)
}

// SearchPosts replaces the search results. Only the newest search may
// write its response.
func (s *PostsStore) SearchPosts(ctx context.Context, query string) error {
	var gen uint64
	s.update(func(st *PostsState) bool {
		s.searchGen++
		gen = s.searchGen
		st.SearchQuery = query
		st.IsSearching, st.SearchError = true, ""
		return false
	})

	resp, err := s.client.Search.Posts(ctx, query, DefaultPageSize, 0)

	s.update(func(st *PostsState) bool {
		if gen != s.searchGen {
			return false
		}
		st.IsSearching = false
		if err != nil {
			st.SearchError = client.Message(err)
			st.SearchResults, st.SearchPagination = nil, models.Pagination{}
			return false
		}
		st.SearchResults, st.SearchPagination = resp.Posts, resp.Pagination
		return s.adoptMembership(st, resp.Posts...)
	})
	return err
}

// LoadMoreSearchResults appends the next page of the current search. It is
// a no-op while a search is running or when no more results exist.
func (s *PostsStore) LoadMoreSearchResults(ctx context.Context) error {
	var (
		gen    uint64
		query  string
		offset int
		skip   bool
	)
	s.mu.Lock()
	st := &s.state
	if st.IsSearching || st.SearchQuery == "" || !st.SearchPagination.HasMore {
		skip = true
	} else {
		gen, query, offset = s.searchGen, st.SearchQuery, len(st.SearchResults)
		st.IsSearching = true
	}
	s.mu.Unlock()
	if skip {
		return nil
	}

	resp, err := s.client.Search.Posts(ctx, query, DefaultPageSize, offset)

	s.update(func(st *PostsState) bool {
		if gen != s.searchGen {
			return false
		}
		st.IsSearching = false
		if err != nil {
			st.SearchError = client.Message(err)
			return false
		}
		seen := make(map[uint]bool, len(st.SearchResults))
		for _, p := range st.SearchResults {
			seen[p.ID] = true
		}
		for _, p := range resp.Posts {
			if !seen[p.ID] {
				st.SearchResults = append(st.SearchResults, p)
			}
		}
		st.SearchPagination = resp.Pagination
		return s.adoptMembership(st, resp.Posts...)
	})
	return err
}

// ClearSearch drops results and invalidates any search in flight.
func (s *PostsStore) ClearSearch() {
	s.update(func(st *PostsState) bool {
		s.searchGen++
		st.SearchQuery, st.SearchError = "", ""
		st.SearchResults, st.SearchPagination = nil, models.Pagination{}
		st.IsSearching = false
		return false
	})
}

// Reset forgets everything, including persisted membership. Used on logout.
func (s *PostsStore) Reset() {
	s.update(func(st *PostsState) bool {
		s.feedGen++
		s.searchGen++
		*st = PostsState{
			LikedPosts: IDSet{},
			SavedPosts: IDSet{},
			Comments:   make(map[uint][]*models.Comment),
		}
		return true
	})
}
