package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/deck/internal/errors"
)

func TestCommentStore(t *testing.T) {
	for _, name := range []string{"memory", "sqlite"} {
		t.Run(name, func(t *testing.T) {
			var p CommentPersister
			if name == "sqlite" {
				p = openDB(t)
			}
			s := NewCommentStore(p)
			s.now = fixedClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
			ch := s.Subscribe()

			_, err := s.Add(1, "   ", "")
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

			first, err := s.Add(1, " looks good ", "")
			require.NoError(t, err)
			assert.Equal(t, DefaultCommentAuthor, first.Author)
			assert.Equal(t, "looks good", first.Content)
			assert.True(t, received(ch))

			_, err = s.Add(1, "ship it", "Ana")
			require.NoError(t, err)
			_, err = s.Add(2, "other task", "")
			require.NoError(t, err)

			thread, err := s.Comments(1)
			require.NoError(t, err)
			require.Len(t, thread, 2)
			assert.Equal(t, "looks good", thread[0].Content)
			assert.Equal(t, "Ana", thread[1].Author)

			require.NoError(t, s.Delete(first.ID))
			assert.True(t, errors.Is(s.Delete(first.ID), errors.ErrCodeNotFound))

			require.NoError(t, s.Clear(1))
			thread, err = s.Comments(1)
			require.NoError(t, err)
			assert.Empty(t, thread)

			thread, err = s.Comments(2)
			require.NoError(t, err)
			assert.Len(t, thread, 1)
		})
	}
}
