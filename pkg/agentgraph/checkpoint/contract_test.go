package checkpoint_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every Store must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) checkpoint.Store) {
	ctx := context.Background()

	t.Run("load missing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Load(ctx, "nobody")
		assert.ErrorIs(t, err, checkpoint.ErrNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(ctx, "42", []byte(`{"messages":[]}`)))

		data, err := store.Load(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, `{"messages":[]}`, string(data))
	})

	t.Run("save overwrites", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(ctx, "42", []byte("first")))
		require.NoError(t, store.Save(ctx, "42", []byte("second")))

		data, err := store.Load(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, "second", string(data))
	})

	t.Run("threads are isolated", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(ctx, "a", []byte("alpha")))
		require.NoError(t, store.Save(ctx, "b", []byte("beta")))

		a, err := store.Load(ctx, "a")
		require.NoError(t, err)
		b, err := store.Load(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, "alpha", string(a))
		assert.Equal(t, "beta", string(b))
	})

	t.Run("list ordered by thread", func(t *testing.T) {
		store := newStore(t)
		infos, err := store.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, infos)
		assert.Empty(t, infos)

		require.NoError(t, store.Save(ctx, "zeta", []byte("zz")))
		require.NoError(t, store.Save(ctx, "alpha", []byte("a")))
		require.NoError(t, store.Save(ctx, "mid", []byte("mmm")))

		infos, err = store.List(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 3)
		assert.Equal(t, "alpha", infos[0].ThreadID)
		assert.Equal(t, int64(1), infos[0].Size)
		assert.Equal(t, "mid", infos[1].ThreadID)
		assert.Equal(t, int64(3), infos[1].Size)
		assert.Equal(t, "zeta", infos[2].ThreadID)
	})

	t.Run("thread ids shaped like internal keys", func(t *testing.T) {
		store := newStore(t)
		threads := []string{"x", "index", "lock:x", "meta:index", "data:x"}
		for _, thread := range threads {
			require.NoError(t, store.Save(ctx, thread, []byte("v-"+thread)))
		}

		for _, thread := range threads {
			data, err := store.Load(ctx, thread)
			require.NoError(t, err)
			assert.Equal(t, "v-"+thread, string(data))
		}

		infos, err := store.List(ctx)
		require.NoError(t, err)
		got := make([]string, 0, len(infos))
		for _, info := range infos {
			got = append(got, info.ThreadID)
		}
		assert.Equal(t, []string{"data:x", "index", "lock:x", "meta:index", "x"}, got)
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(ctx, "42", []byte("data")))
		require.NoError(t, store.Delete(ctx, "42"))

		_, err := store.Load(ctx, "42")
		assert.ErrorIs(t, err, checkpoint.ErrNotFound)

		infos, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, infos)

		assert.NoError(t, store.Delete(ctx, "42"), "deleting a missing thread is not an error")
	})

	t.Run("concurrent threads", func(t *testing.T) {
		store := newStore(t)
		const n = 20

		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				thread := string(rune('a' + id))
				if err := store.Save(ctx, thread, []byte(thread)); err != nil {
					errs <- err
					return
				}
				data, err := store.Load(ctx, thread)
				if err != nil {
					errs <- err
					return
				}
				if string(data) != thread {
					errs <- errors.New("thread " + thread + " read " + string(data))
				}
			}(i)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			t.Error(err)
		}
	})
}

// runLockerContract exercises the behaviour every Locker must share.
func runLockerContract(t *testing.T, newLocker func(t *testing.T) checkpoint.Locker) {
	ctx := context.Background()

	t.Run("exclusive", func(t *testing.T) {
		locker := newLocker(t)
		unlock, err := locker.Lock(ctx, "42", time.Minute)
		require.NoError(t, err)

		_, err = locker.Lock(ctx, "42", time.Minute)
		assert.ErrorIs(t, err, checkpoint.ErrLocked)

		require.NoError(t, unlock(ctx))
		unlock, err = locker.Lock(ctx, "42", time.Minute)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
	})

	t.Run("per thread", func(t *testing.T) {
		locker := newLocker(t)
		unlockA, err := locker.Lock(ctx, "a", time.Minute)
		require.NoError(t, err)
		unlockB, err := locker.Lock(ctx, "b", time.Minute)
		require.NoError(t, err)

		require.NoError(t, unlockA(ctx))
		require.NoError(t, unlockB(ctx))
	})

	t.Run("stale unlock keeps newer lock", func(t *testing.T) {
		locker := newLocker(t)
		unlock, err := locker.Lock(ctx, "42", time.Minute)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))

		_, err = locker.Lock(ctx, "42", time.Minute)
		require.NoError(t, err)

		require.NoError(t, unlock(ctx), "releasing twice is harmless")
		_, err = locker.Lock(ctx, "42", time.Minute)
		assert.ErrorIs(t, err, checkpoint.ErrLocked)
	})
}
