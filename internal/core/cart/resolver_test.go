package cart

import (
	"context"
	"errors"
	"testing"

	"cart-assistant/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore 記憶體版儲存，可注入錯誤
type fakeStore struct {
	results    []common.Product
	savedPrefs map[string]string
	searchErr  error
	prefErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{savedPrefs: make(map[string]string)}
}

func (f *fakeStore) GetUser(ctx context.Context, userID string) (*common.UserProfile, error) {
	return &common.UserProfile{UserID: userID, FavoriteBrands: make(map[string]string)}, nil
}

func (f *fakeStore) SetUserPreference(ctx context.Context, userID, category, brand string) error {
	if f.prefErr != nil {
		return f.prefErr
	}
	f.savedPrefs[userID+"/"+category] = brand
	return nil
}

func (f *fakeStore) SearchProducts(ctx context.Context, query, userID, category string, limit int) ([]common.Product, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.results) > limit {
		return f.results[:limit], nil
	}
	return f.results, nil
}

func (f *fakeStore) Close() error { return nil }

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	lait := common.Ingredient{Name: "lait", Quantity: 1, Category: "lait"}

	t.Run("not found", func(t *testing.T) {
		st := newFakeStore()
		r := NewResolver(st, nil)

		res, err := r.Resolve(ctx, lait, &common.UserProfile{UserID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, ResolutionNotFound, res.Status)
		assert.Nil(t, res.Product)
	})

	t.Run("preferred brand locks in without learning", func(t *testing.T) {
		st := newFakeStore()
		st.results = []common.Product{
			{ID: "lait-2", Brand: "Candia", Category: "lait", Price: 0.99},
			{ID: "lait-1", Brand: "Lactel", Category: "lait", Price: 1.15},
		}
		r := NewResolver(st, nil)
		profile := &common.UserProfile{
			UserID:         "alice",
			FavoriteBrands: map[string]string{"lait": "Lactel"},
		}

		res, err := r.Resolve(ctx, lait, profile)
		require.NoError(t, err)
		assert.Equal(t, ResolutionPreferred, res.Status)
		assert.Equal(t, "Lactel", res.Product.Brand)
		assert.False(t, res.LearnedBrand)
		assert.Empty(t, st.savedPrefs)
	})

	t.Run("preferred brand out of stock falls back to first candidate", func(t *testing.T) {
		st := newFakeStore()
		st.results = []common.Product{
			{ID: "lait-2", Brand: "Candia", Category: "lait", Price: 0.99},
		}
		r := NewResolver(st, nil)
		profile := &common.UserProfile{
			UserID:         "alice",
			FavoriteBrands: map[string]string{"lait": "Lactel"},
		}

		res, err := r.Resolve(ctx, lait, profile)
		require.NoError(t, err)
		assert.Equal(t, ResolutionSingle, res.Status)
		assert.Equal(t, "Candia", res.Product.Brand)
		assert.Empty(t, st.savedPrefs)
	})

	t.Run("single brand needs no arbitration", func(t *testing.T) {
		st := newFakeStore()
		st.results = []common.Product{
			{ID: "lait-1", Brand: "Lactel", Category: "lait", Price: 1.15},
			{ID: "lait-1b", Brand: "Lactel", Category: "lait", Price: 1.35},
		}
		r := NewResolver(st, nil)

		res, err := r.Resolve(ctx, lait, &common.UserProfile{UserID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, ResolutionSingle, res.Status)
		assert.Equal(t, "lait-1", res.Product.ID)
		assert.Empty(t, st.savedPrefs)
	})

	t.Run("brand ambiguity arbitrated and remembered", func(t *testing.T) {
		st := newFakeStore()
		st.results = []common.Product{
			{ID: "lait-1", Brand: "Lactel", Category: "lait", Price: 1.15},
			{ID: "lait-2", Brand: "Candia", Category: "lait", Price: 0.99},
		}
		r := NewResolver(st, nil)

		res, err := r.Resolve(ctx, lait, &common.UserProfile{UserID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, ResolutionArbitrated, res.Status)
		assert.Equal(t, "Candia", res.Product.Brand) // 最低價策略
		assert.True(t, res.LearnedBrand)
		assert.Len(t, res.Options, 2)
		assert.Equal(t, "Candia", st.savedPrefs["alice/lait"])
	})

	t.Run("options capped at four brands", func(t *testing.T) {
		st := newFakeStore()
		for _, brand := range []string{"A", "B", "C", "D", "E", "F"} {
			st.results = append(st.results, common.Product{
				ID: "lait-" + brand, Brand: brand, Category: "lait", Price: 1.0,
			})
		}
		r := NewResolver(st, nil)

		res, err := r.Resolve(ctx, lait, &common.UserProfile{UserID: "alice"})
		require.NoError(t, err)
		assert.Equal(t, ResolutionArbitrated, res.Status)
		assert.Len(t, res.Options, 4)
	})

	t.Run("search error propagates", func(t *testing.T) {
		st := newFakeStore()
		st.searchErr = errors.New("database is locked")
		r := NewResolver(st, nil)

		_, err := r.Resolve(ctx, lait, &common.UserProfile{UserID: "alice"})
		assert.Error(t, err)
	})

	t.Run("preference write error propagates", func(t *testing.T) {
		st := newFakeStore()
		st.results = []common.Product{
			{ID: "lait-1", Brand: "Lactel", Category: "lait", Price: 1.15},
			{ID: "lait-2", Brand: "Candia", Category: "lait", Price: 0.99},
		}
		st.prefErr = errors.New("disk full")
		r := NewResolver(st, nil)

		_, err := r.Resolve(ctx, lait, &common.UserProfile{UserID: "alice"})
		assert.Error(t, err)
	})
}

func TestCheapestPolicy(t *testing.T) {
	chosen := CheapestPolicy{}.ChooseAmong([]common.Product{
		{ID: "a", Price: 2.49},
		{ID: "b", Price: 0.99},
		{ID: "c", Price: 1.15},
	})
	assert.Equal(t, "b", chosen.ID)
}
