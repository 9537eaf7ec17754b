package store

import (
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/logging"
	"github.com/tgienger/deck/internal/models"
)

// DefaultCommentAuthor signs comments left without a name
const DefaultCommentAuthor = "You"

// CommentStore holds the comment threads of tasks. Comments live beside the task
// snapshot rather than inside it, so replacing tasks never drops a thread.
type CommentStore struct {
	notifier

	mu      sync.Mutex
	persist CommentPersister
	now     Clock
	log     *logrus.Entry

	// used when there is no persister
	mem    map[int64][]models.Comment
	lastID int64
}

// NewCommentStore creates a comment store. A nil persister keeps comments in memory only.
func NewCommentStore(p CommentPersister) *CommentStore {
	return &CommentStore{
		persist: p,
		now:     time.Now,
		log:     logging.NewLogger("store.comments"),
		mem:     make(map[int64][]models.Comment),
	}
}

// Add appends a comment to a task's thread
func (s *CommentStore) Add(taskID int64, content, author string) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, errors.InvalidInput("comment content is required")
	}
	author = strings.TrimSpace(author)
	if author == "" {
		author = DefaultCommentAuthor
	}

	s.mu.Lock()
	at := s.now()
	var c models.Comment
	if s.persist == nil {
		s.lastID++
		c = models.Comment{ID: s.lastID, TaskID: taskID, Author: author, Content: content, CreatedAt: at}
		s.mem[taskID] = append(s.mem[taskID], c)
	} else {
		saved, err := s.persist.CreateComment(taskID, author, content, at)
		if err != nil {
			s.mu.Unlock()
			return models.Comment{}, errors.Wrap(err, errors.ErrCodeStorage, "failed to save comment")
		}
		c = *saved
	}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"task": taskID, "comment": c.ID}).Debug("Comment added")
	s.notify()
	return c, nil
}

// Comments returns a task's thread, oldest first
func (s *CommentStore) Comments(taskID int64) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persist == nil {
		return append([]models.Comment(nil), s.mem[taskID]...), nil
	}
	comments, err := s.persist.GetTaskComments(taskID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to load comments")
	}
	return comments, nil
}

// Delete removes one comment
func (s *CommentStore) Delete(id int64) error {
	s.mu.Lock()
	removed := false
	if s.persist == nil {
		for taskID, thread := range s.mem {
			for i, c := range thread {
				if c.ID == id {
					s.mem[taskID] = append(thread[:i:i], thread[i+1:]...)
					removed = true
					break
				}
			}
		}
	} else {
		var err error
		removed, err = s.persist.DeleteComment(id)
		if err != nil {
			s.mu.Unlock()
			return errors.Wrap(err, errors.ErrCodeStorage, "failed to delete comment")
		}
	}
	s.mu.Unlock()

	if !removed {
		return errors.New(errors.ErrCodeNotFound, "comment not found").WithDetail("id", id)
	}
	s.notify()
	return nil
}

// Clear drops a task's whole thread. Clearing a task without comments is a no-op.
func (s *CommentStore) Clear(taskID int64) error {
	s.mu.Lock()
	if s.persist == nil {
		delete(s.mem, taskID)
	} else if err := s.persist.DeleteTaskComments(taskID); err != nil {
		s.mu.Unlock()
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to clear comments")
	}
	s.mu.Unlock()
	s.notify()
	return nil
}
