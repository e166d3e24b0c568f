package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/internal/domain"
	"github.com/maariaclaara/projeto13-batepapo-uol-api/pkg/database"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var base = time.UnixMilli(1_700_000_000_000)

type backend struct {
	name string
	open func(t *testing.T) Store
}

func backends() []backend {
	return []backend{
		{"memory", func(t *testing.T) Store { return NewMemoryStore() }},
		{"redis", func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			return newRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
		}},
		{"sql", func(t *testing.T) Store {
			s, err := NewSQLStore(database.Config{
				Driver:   "sqlite",
				FilePath: filepath.Join(t.TempDir(), "chat.db"),
			})
			require.NoError(t, err)
			return s
		}},
	}
}

// forEachBackend runs fn against a fresh store of every kind.
func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s)
		})
	}
}

func TestStore_Join_Rejects_Duplicate_Name(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		req := require.New(t)
		ctx := context.Background()

		// Given
		req.NoError(s.Join(ctx, "Alice", base))

		// When
		err := s.Join(ctx, "Alice", base.Add(time.Second))

		// Then
		req.ErrorIs(err, domain.ErrConflict)
		p, err := s.Get(ctx, "Alice")
		req.NoError(err)
		req.Equal(base.UnixMilli(), p.LastActivity.UnixMilli())
	})
}

func TestStore_Touch_Updates_Last_Activity(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		req := require.New(t)
		ctx := context.Background()

		req.NoError(s.Join(ctx, "Alice", base))
		req.NoError(s.Touch(ctx, "Alice", base.Add(3*time.Second)))

		p, err := s.Get(ctx, "Alice")
		req.NoError(err)
		req.Equal(base.Add(3*time.Second).UnixMilli(), p.LastActivity.UnixMilli())

		req.ErrorIs(s.Touch(ctx, "Bob", base), domain.ErrNotFound)
		_, err = s.Get(ctx, "Bob")
		req.ErrorIs(err, domain.ErrNotFound)
	})
}

func TestStore_List_Returns_Every_Participant(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		req := require.New(t)
		ctx := context.Background()

		list, err := s.List(ctx)
		req.NoError(err)
		req.Empty(list)

		req.NoError(s.Join(ctx, "Bob", base))
		req.NoError(s.Join(ctx, "Alice", base.Add(time.Second)))

		list, err = s.List(ctx)
		req.NoError(err)
		req.Len(list, 2)
		req.Equal("Alice", list[0].Name)
		req.Equal("Bob", list[1].Name)
	})
}

func TestStore_ExpireOne_Removes_Single_Stale_Participant(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		req := require.New(t)
		ctx := context.Background()

		// Given two stale participants and one fresh one
		req.NoError(s.Join(ctx, "Alice", base.Add(time.Second)))
		req.NoError(s.Join(ctx, "Bob", base))
		req.NoError(s.Join(ctx, "Carol", base.Add(20*time.Second)))
		threshold := base.Add(10 * time.Second)

		// When
		first, err := s.ExpireOne(ctx, threshold)
		req.NoError(err)

		// Then the stalest goes first, and only one per call
		req.Equal("Bob", first.Name)
		list, err := s.List(ctx)
		req.NoError(err)
		req.Len(list, 2)

		second, err := s.ExpireOne(ctx, threshold)
		req.NoError(err)
		req.Equal("Alice", second.Name)

		_, err = s.ExpireOne(ctx, threshold)
		req.ErrorIs(err, domain.ErrNotFound)

		_, err = s.Get(ctx, "Carol")
		req.NoError(err)
	})
}

func TestStore_ExpireOne_Threshold_Is_Strict(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		req := require.New(t)
		ctx := context.Background()

		req.NoError(s.Join(ctx, "Alice", base))

		_, err := s.ExpireOne(ctx, base)
		req.ErrorIs(err, domain.ErrNotFound)

		p, err := s.ExpireOne(ctx, base.Add(time.Millisecond))
		req.NoError(err)
		req.Equal("Alice", p.Name)
	})
}

func TestStore_Touch_Racing_ExpireOne_Has_One_Winner(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		req := require.New(t)
		ctx := context.Background()

		for i := 0; i < 20; i++ {
			name := fmt.Sprintf("user-%d", i)
			req.NoError(s.Join(ctx, name, base))

			var (
				wg        sync.WaitGroup
				touchErr  error
				expireErr error
			)
			wg.Add(2)
			go func() {
				defer wg.Done()
				touchErr = s.Touch(ctx, name, base.Add(time.Minute))
			}()
			go func() {
				defer wg.Done()
				_, expireErr = s.ExpireOne(ctx, base.Add(time.Second))
			}()
			wg.Wait()

			_, getErr := s.Get(ctx, name)
			if expireErr == nil {
				// Reaper won: the heartbeat must not resurrect the participant.
				req.ErrorIs(touchErr, domain.ErrNotFound)
				req.ErrorIs(getErr, domain.ErrNotFound)
			} else {
				req.ErrorIs(expireErr, domain.ErrNotFound)
				req.NoError(touchErr)
				req.NoError(getErr)
				_, err := s.ExpireOne(ctx, base.Add(2*time.Minute))
				req.NoError(err)
			}
		}
	})
}

func TestStore_Recent_Filters_By_Visibility_Newest_First(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		req := require.New(t)
		ctx := context.Background()

		// Given
		msgs := []domain.Message{
			domain.NewStatus("Alice", domain.StatusEntered, "10:00:00"),
			domain.NewMessage("Alice", "Bob", "psst", domain.KindDirected, "10:00:01"),
			domain.NewMessage("Bob", "Carol", "secret", domain.KindDirected, "10:00:02"),
			domain.NewMessage("Carol", "Dave", "notice", domain.KindPublic, "10:00:03"),
			domain.NewMessage("Dave", domain.Everyone, "hello all", domain.KindBroadcast, "10:00:04"),
		}
		for _, m := range msgs {
			req.NoError(s.Append(ctx, m))
		}

		// When
		got, err := s.Recent(ctx, "Alice", 10)

		// Then
		req.NoError(err)
		req.Equal([]domain.Message{msgs[4], msgs[3], msgs[1], msgs[0]}, got)

		got, err = s.Recent(ctx, "Carol", 10)
		req.NoError(err)
		req.Equal([]domain.Message{msgs[4], msgs[3], msgs[2], msgs[0]}, got)
	})
}

func TestStore_Recent_Limit_Returns_Newest(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		req := require.New(t)
		ctx := context.Background()

		var msgs []domain.Message
		for i := 0; i < 5; i++ {
			m := domain.NewMessage("Bob", domain.Everyone, fmt.Sprintf("m%d", i), domain.KindBroadcast, "10:00:00")
			msgs = append(msgs, m)
			req.NoError(s.Append(ctx, m))
		}

		got, err := s.Recent(ctx, "Alice", 3)
		req.NoError(err)
		req.Equal([]domain.Message{msgs[4], msgs[3], msgs[2]}, got)

		got, err = s.Recent(ctx, "Alice", 100)
		req.NoError(err)
		req.Len(got, 5)
	})
}

func TestStore_Recent_Huge_Limit_Returns_Everything_Visible(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		req := require.New(t)
		ctx := context.Background()

		// Given
		msg := domain.NewStatus("Alice", domain.StatusEntered, "10:00:00")
		req.NoError(s.Append(ctx, msg))

		// When
		got, err := s.Recent(ctx, "Bob", 1<<62)

		// Then
		req.NoError(err)
		req.Equal([]domain.Message{msg}, got)
	})
}

func TestRedisStore_Recent_Pages_Past_Hidden_Entries(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := newRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	defer s.Close()

	// Given one visible message buried under more than a page of hidden ones
	visible := domain.NewMessage("Bob", domain.Everyone, "hi", domain.KindBroadcast, "10:00:00")
	req.NoError(s.Append(ctx, visible))
	for i := 0; i < recentPageSize+5; i++ {
		req.NoError(s.Append(ctx, domain.NewMessage("Bob", "Carol", "x", domain.KindDirected, "10:00:00")))
	}

	// When
	got, err := s.Recent(ctx, "Alice", 1)

	// Then
	req.NoError(err)
	req.Equal([]domain.Message{visible}, got)
	req.True(mr.Exists("batepapo:messages"))
}

func TestRedisStore_Wraps_Connection_Errors(t *testing.T) {
	req := require.New(t)
	mr := miniredis.RunT(t)
	s := newRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), "test")
	defer s.Close()
	mr.Close()

	err := s.Join(context.Background(), "Alice", base)
	req.ErrorIs(err, domain.ErrStoreUnavailable)

	_, err = s.ExpireOne(context.Background(), base)
	req.ErrorIs(err, domain.ErrStoreUnavailable)
}
