package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
	"github.com/MikeSquared-Agency/ValueCharts/internal/testutil"
)

// runStoreSuite exercises the Store contract against any implementation.
func runStoreSuite(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		c := testutil.HotelChart()
		require.NoError(t, s.CreateChart(ctx, c))
		require.NotEmpty(t, c.ID)

		got, err := s.GetChart(ctx, c.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, c, got)
	})

	t.Run("get missing returns nil", func(t *testing.T) {
		got, err := s.GetChart(ctx, "00000000-0000-0000-0000-000000000000")
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = s.GetChart(ctx, "not-a-uuid")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("name availability", func(t *testing.T) {
		c := testutil.HotelChart()
		c.Name = "Availability"
		ok, err := s.NameAvailable(ctx, c.Name)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, s.CreateChart(ctx, c))
		ok, err = s.NameAvailable(ctx, c.Name)
		require.NoError(t, err)
		assert.False(t, ok)

		byName, err := s.GetChartByName(ctx, c.Name)
		require.NoError(t, err)
		require.NotNil(t, byName)
		assert.Equal(t, c.ID, byName.ID)
	})

	t.Run("update replaces document", func(t *testing.T) {
		c := testutil.HotelChart()
		c.Name = "Before"
		require.NoError(t, s.CreateChart(ctx, c))

		c.Name = "After"
		require.NoError(t, c.RemoveAlternative("Hostel"))
		require.NoError(t, s.UpdateChart(ctx, c))

		got, err := s.GetChart(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "After", got.Name)
		assert.Len(t, got.Alternatives, 2)

		missing := testutil.HotelChart()
		missing.ID = "00000000-0000-0000-0000-000000000000"
		assert.True(t, IsNotFound(s.UpdateChart(ctx, missing)))
	})

	t.Run("list by creator", func(t *testing.T) {
		c := testutil.HotelChart()
		c.Creator = "listing-owner"
		require.NoError(t, s.CreateChart(ctx, c))

		rows, err := s.ListCharts(ctx, "listing-owner")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, c.ID, rows[0].ID)
		assert.Equal(t, 2, rows[0].Users)
	})

	t.Run("user upsert and delete", func(t *testing.T) {
		c := testutil.HotelChart()
		require.NoError(t, s.CreateChart(ctx, c))

		u := model.NewUser("sam")
		_, err := model.InitializePreferences(c, u)
		require.NoError(t, err)
		updated, err := s.UpsertUser(ctx, c.ID, u)
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Len(t, updated.Users, 3)

		updated, err = s.DeleteUser(ctx, c.ID, "lisa")
		require.NoError(t, err)
		_, err = updated.User("lisa")
		assert.True(t, errors.Is(err, model.ErrNotFound))

		_, err = s.DeleteUser(ctx, c.ID, "lisa")
		assert.True(t, IsNotFound(err))

		got, err := s.GetChart(ctx, c.ID)
		require.NoError(t, err)
		assert.Len(t, got.Users, 2)

		none, err := s.UpsertUser(ctx, "00000000-0000-0000-0000-000000000000", u)
		require.NoError(t, err)
		assert.Nil(t, none)
	})

	t.Run("concurrent user upserts are not lost", func(t *testing.T) {
		c := testutil.HotelChart()
		require.NoError(t, s.CreateChart(ctx, c))

		names := []string{"u1", "u2", "u3", "u4", "u5", "u6"}
		var wg sync.WaitGroup
		errs := make(chan error, len(names))
		for _, name := range names {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				_, err := s.UpsertUser(ctx, c.ID, model.NewUser(name))
				errs <- err
			}(name)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := s.GetChart(ctx, c.ID)
		require.NoError(t, err)
		assert.Len(t, got.Users, 2+len(names))
	})

	t.Run("delete", func(t *testing.T) {
		c := testutil.HotelChart()
		require.NoError(t, s.CreateChart(ctx, c))
		require.NoError(t, s.DeleteChart(ctx, c.ID))

		got, err := s.GetChart(ctx, c.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.True(t, IsNotFound(s.DeleteChart(ctx, c.ID)))
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(t.TempDir() + "/charts.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	runStoreSuite(t, s)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := testutil.HotelChart()
	require.NoError(t, s.CreateChart(ctx, c))

	got, err := s.GetChart(ctx, c.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := s.GetChart(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hotels", again.Name)
}
