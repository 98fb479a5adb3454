package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/geocoder89/warehouse/internal/domain/product"
	"github.com/geocoder89/warehouse/internal/domain/user"
	"github.com/geocoder89/warehouse/internal/repo/memory"
	"github.com/geocoder89/warehouse/internal/repo/repotest"
	"github.com/stretchr/testify/require"
)

func TestProductsRepo(t *testing.T) {
	repotest.RunProducts(t, func(t *testing.T) product.Repository {
		return memory.NewProductsRepo()
	})
}

func TestUsersRepo(t *testing.T) {
	repotest.RunUsers(t, func(t *testing.T) user.Repository {
		return memory.NewUsersRepo()
	})
}

func TestProductsRepo_ConcurrentCreatesKeepSKUUnique(t *testing.T) {
	r := memory.NewProductsRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// half the goroutines race for the same sku
			sku := fmt.Sprintf("C-%d", i)
			if i%2 == 0 {
				sku = "SHARED"
			}
			_, err := r.Create(ctx, repotest.NewProduct(sku, 0))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	conflicts := 0
	for err := range errs {
		if err != nil {
			require.ErrorIs(t, err, product.ErrSKUTaken)
			conflicts++
		}
	}
	require.Equal(t, 9, conflicts)

	_, total, err := r.List(ctx, product.ListFilter{Page: 1, Limit: 100})
	require.NoError(t, err)
	require.Equal(t, 11, total)
}

func TestProductsRepo_OverflowedOffsetReturnsEmptyPage(t *testing.T) {
	r := memory.NewProductsRepo()
	ctx := context.Background()

	_, err := r.Create(ctx, repotest.NewProduct("OVF-1", 0))
	require.NoError(t, err)

	items, total, err := r.List(ctx, product.ListFilter{Page: 922337203685477580, Limit: 20})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Empty(t, items)
}
