package repository

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"tourismcam/internal/models"
)

type engagementKey struct {
	userID uint
	postID uint
}

// MemoryStore is the process-local mock data store. All state is lost on
// restart. Reads hand out copies so callers never alias stored records.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	users    map[uint]*models.User
	posts    map[uint]*models.Post
	comments map[uint]*models.Comment
	likes    map[engagementKey]time.Time
	saves    map[engagementKey]time.Time

	nextUserID    uint
	nextPostID    uint
	nextCommentID uint
}

// NewMemoryStore creates an empty store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates an empty store that timestamps with now.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		now:      now,
		users:    make(map[uint]*models.User),
		posts:    make(map[uint]*models.Post),
		comments: make(map[uint]*models.Comment),
		likes:    make(map[engagementKey]time.Time),
		saves:    make(map[engagementKey]time.Time),
	}
}

// Store exposes the memory store through the repository interfaces.
func (m *MemoryStore) Store() Store {
	return Store{
		Users:    memoryUsers{m},
		Posts:    memoryPosts{m},
		Comments: memoryComments{m},
	}
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

func clonePost(p *models.Post) *models.Post {
	cp := *p
	cp.Tags = append([]string{}, p.Tags...)
	cp.User = nil
	cp.RecentComments = nil
	cp.IsLiked = false
	cp.IsSaved = false
	return &cp
}

func cloneComment(c *models.Comment) *models.Comment {
	cp := *c
	if c.ParentCommentID != nil {
		parent := *c.ParentCommentID
		cp.ParentCommentID = &parent
	}
	cp.User = nil
	return &cp
}

// authorLocked returns a copy of the user or a placeholder when the record is
// gone, so reads never fail on a dangling reference.
func (m *MemoryStore) authorLocked(ctx context.Context, userID uint) *models.User {
	if u, ok := m.users[userID]; ok {
		return cloneUser(u)
	}
	slog.WarnContext(ctx, "joined user missing, using placeholder", slog.Uint64("user_id", uint64(userID)))
	return models.PlaceholderUser(userID)
}

func (m *MemoryStore) commentViewLocked(ctx context.Context, c *models.Comment) *models.Comment {
	cp := cloneComment(c)
	cp.AttachUser(m.authorLocked(ctx, c.UserID))
	return cp
}

func (m *MemoryStore) enrichLocked(ctx context.Context, p *models.Post, viewerID uint) *models.Post {
	out := clonePost(p)
	out.User = m.authorLocked(ctx, p.UserID)
	if viewerID != 0 {
		_, out.IsLiked = m.likes[engagementKey{viewerID, p.ID}]
		_, out.IsSaved = m.saves[engagementKey{viewerID, p.ID}]
	}

	var recent []*models.Comment
	for _, c := range m.comments {
		if c.PostID == p.ID {
			recent = append(recent, c)
		}
	}
	sort.Slice(recent, func(i, j int) bool { return newerComment(recent[i], recent[j]) })
	if len(recent) > models.MaxRecentComments {
		recent = recent[:models.MaxRecentComments]
	}
	out.RecentComments = make([]*models.Comment, 0, len(recent))
	for _, c := range recent {
		out.RecentComments = append(out.RecentComments, m.commentViewLocked(ctx, c))
	}
	return out
}

func newerComment(a, b *models.Comment) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func newerPost(a, b *models.Post) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// livePostLocked returns the stored post unless it is absent or soft-deleted.
func (m *MemoryStore) livePostLocked(id uint) (*models.Post, bool) {
	p, ok := m.posts[id]
	if !ok || p.DeletedAt.Valid {
		return nil, false
	}
	return p, true
}

type memoryUsers struct{ m *MemoryStore }

func sameIdentity(a, b *models.User) bool {
	if strings.EqualFold(a.Email, b.Email) {
		return true
	}
	return a.Username != "" && strings.EqualFold(a.Username, b.Username)
}

func (r memoryUsers) Create(ctx context.Context, user *models.User) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if sameIdentity(u, user) {
			return ErrDuplicate
		}
	}

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	m.nextUserID++
	user.ID = m.nextUserID
	now := m.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.PostCount = 0
	m.users[user.ID] = cloneUser(user)
	return nil
}

func (r memoryUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return cloneUser(r.m.users[id]), nil
}

func (r memoryUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r memoryUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, u := range r.m.users {
		if strings.EqualFold(u.Username, username) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r memoryUsers) Update(ctx context.Context, user *models.User) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	for id, u := range m.users {
		if id != user.ID && sameIdentity(u, user) {
			return ErrDuplicate
		}
	}
	updated := cloneUser(user)
	updated.CreatedAt = stored.CreatedAt
	updated.PostCount = stored.PostCount
	updated.UpdatedAt = m.now()
	m.users[user.ID] = updated
	user.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r memoryUsers) Search(ctx context.Context, query string, limit int) ([]*models.User, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := []*models.User{}
	for _, u := range r.m.users {
		if containsFold(u.Username, q) || containsFold(u.Name, q) {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memoryUsers) Count(ctx context.Context) (int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return int64(len(r.m.users)), nil
}

type memoryPosts struct{ m *MemoryStore }

func (r memoryPosts) Create(ctx context.Context, post *models.Post) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextPostID++
	post.ID = m.nextPostID
	now := m.now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	post.LikesCount, post.CommentsCount, post.ViewsCount = 0, 0, 0
	if post.Status == "" {
		post.Status = models.StatusPublished
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}

	m.posts[post.ID] = clonePost(post)
	if u, ok := m.users[post.UserID]; ok {
		u.PostCount++
	}
	return nil
}

func (r memoryPosts) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	m := r.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.posts[id]
	if !ok || !p.VisibleTo(viewerID) {
		return nil, nil
	}
	return m.enrichLocked(ctx, p, viewerID), nil
}

func (r memoryPosts) List(ctx context.Context, q PostQuery) ([]*models.Post, int64, error) {
	m := r.m
	search := strings.ToLower(strings.TrimSpace(q.Search))
	tag := strings.ToLower(strings.TrimSpace(q.Tag))

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*models.Post
	for _, p := range m.posts {
		if !p.VisibleTo(q.ViewerID) {
			continue
		}
		if q.AuthorID != 0 && p.UserID != q.AuthorID {
			continue
		}
		if search != "" && !containsFold(p.Caption, search) && !containsFold(p.Location, search) {
			continue
		}
		if tag != "" && !hasTag(p.Tags, tag) {
			continue
		}
		if q.SavedBy != 0 {
			if _, saved := m.saves[engagementKey{q.SavedBy, p.ID}]; !saved {
				continue
			}
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return newerPost(matched[i], matched[j]) })

	total := int64(len(matched))
	start := q.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}

	out := make([]*models.Post, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, m.enrichLocked(ctx, p, q.ViewerID))
	}
	return out, total, nil
}

func (r memoryPosts) Update(ctx context.Context, post *models.Post) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.livePostLocked(post.ID)
	if !ok {
		return ErrNotFound
	}
	stored.Caption = post.Caption
	stored.Location = post.Location
	stored.Tags = append([]string{}, post.Tags...)
	stored.IsPublic = post.IsPublic
	stored.Status = post.Status
	stored.ImageMetadata = post.ImageMetadata
	stored.UpdatedAt = m.now()
	post.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r memoryPosts) Delete(ctx context.Context, id uint) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.livePostLocked(id)
	if !ok {
		return ErrNotFound
	}
	stored.DeletedAt = gorm.DeletedAt{Time: m.now(), Valid: true}
	if u, ok := m.users[stored.UserID]; ok && u.PostCount > 0 {
		u.PostCount--
	}
	return nil
}

func (r memoryPosts) IncrementViews(ctx context.Context, id uint) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.livePostLocked(id)
	if !ok {
		return ErrNotFound
	}
	stored.ViewsCount++
	return nil
}

func (r memoryPosts) ToggleLike(ctx context.Context, postID, userID uint) (bool, int, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.livePostLocked(postID)
	if !ok {
		return false, 0, ErrNotFound
	}
	key := engagementKey{userID, postID}
	if _, liked := m.likes[key]; liked {
		delete(m.likes, key)
		if stored.LikesCount > 0 {
			stored.LikesCount--
		}
		return false, stored.LikesCount, nil
	}
	m.likes[key] = m.now()
	stored.LikesCount++
	return true, stored.LikesCount, nil
}

func (r memoryPosts) ToggleSave(ctx context.Context, postID, userID uint) (bool, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.livePostLocked(postID); !ok {
		return false, ErrNotFound
	}
	key := engagementKey{userID, postID}
	if _, saved := m.saves[key]; saved {
		delete(m.saves, key)
		return false, nil
	}
	m.saves[key] = m.now()
	return true, nil
}

type memoryComments struct{ m *MemoryStore }

func (r memoryComments) Create(ctx context.Context, comment *models.Comment) (int, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.livePostLocked(comment.PostID)
	if !ok {
		return 0, ErrNotFound
	}
	var parent *models.Comment
	if comment.ParentCommentID != nil {
		parent, ok = m.comments[*comment.ParentCommentID]
		if !ok || parent.PostID != comment.PostID {
			return 0, ErrInvalidParent
		}
	}

	m.nextCommentID++
	comment.ID = m.nextCommentID
	now := m.now()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	comment.UpdatedAt = now
	comment.IsEdited = false
	comment.RepliesCount = 0
	m.comments[comment.ID] = cloneComment(comment)

	post.CommentsCount++
	if parent != nil {
		parent.RepliesCount++
	}
	comment.AttachUser(m.authorLocked(ctx, comment.UserID))
	return post.CommentsCount, nil
}

func (r memoryComments) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	m := r.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.comments[id]
	if !ok {
		return nil, nil
	}
	return m.commentViewLocked(ctx, c), nil
}

func (r memoryComments) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	m := r.m
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*models.Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			matched = append(matched, c)
		}
	}
	// Oldest first reads like a conversation.
	sort.Slice(matched, func(i, j int) bool { return newerComment(matched[j], matched[i]) })

	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*models.Comment, 0, len(matched))
	for _, c := range matched {
		out = append(out, m.commentViewLocked(ctx, c))
	}
	return out, nil
}

func (r memoryComments) Update(ctx context.Context, comment *models.Comment) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.comments[comment.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Content = comment.Content
	stored.IsEdited = true
	stored.UpdatedAt = m.now()
	comment.IsEdited = true
	comment.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r memoryComments) Delete(ctx context.Context, id uint) (int, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.comments[id]
	if !ok {
		return 0, ErrNotFound
	}

	// Collect the comment and every reply below it.
	doomed := map[uint]bool{id: true}
	for grew := true; grew; {
		grew = false
		for cid, c := range m.comments {
			if c.ParentCommentID != nil && doomed[*c.ParentCommentID] && !doomed[cid] {
				doomed[cid] = true
				grew = true
			}
		}
	}
	for cid := range doomed {
		delete(m.comments, cid)
	}

	if target.ParentCommentID != nil {
		if parent, ok := m.comments[*target.ParentCommentID]; ok && parent.RepliesCount > 0 {
			parent.RepliesCount--
		}
	}

	post, ok := m.posts[target.PostID]
	if !ok {
		return 0, nil
	}
	post.CommentsCount -= len(doomed)
	if post.CommentsCount < 0 {
		post.CommentsCount = 0
	}
	return post.CommentsCount, nil
}
