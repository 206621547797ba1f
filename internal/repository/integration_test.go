//go:build integration

package repository

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-shop-api/internal/migrate"
	"github.com/flicky/go-shop-api/internal/model"
)

type fixture struct {
	user     *model.User
	category *model.Category
	products []*model.Product
}

func seed(t *testing.T, prices ...string) fixture {
	t.Helper()
	cleanupTable(t, allTables...)
	ctx := context.Background()

	user := &model.User{Email: "buyer@example.com", Password: "h", Role: model.RoleCustomer}
	require.NoError(t, NewUserRepository(testPool).Create(ctx, user))

	category := &model.Category{Slug: "shoes", Title: "Shoes"}
	require.NoError(t, NewCategoryRepository(testPool).Create(ctx, category))

	f := fixture{user: user, category: category}
	productRepo := NewProductRepository(testPool)
	for i, price := range prices {
		p := &model.Product{
			Title: "Product " + string(rune('A'+i)), Description: "D", Size: float64(40 + i),
			Color: "black", Price: decimal.RequireFromString(price), CategorySlug: category.Slug,
		}
		require.NoError(t, productRepo.Create(ctx, p))
		f.products = append(f.products, p)
	}
	return f
}

func TestUserRepo_CreateAndGetByEmail(t *testing.T) {
	cleanupTable(t, allTables...)
	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := &model.User{
		Email: "test@example.com", Password: "hashed",
		FirstName: "John", LastName: "Doe", Role: model.RoleCustomer,
	}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEqual(t, uuid.Nil, user.ID)

	found, err := repo.GetByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	err = repo.Create(ctx, &model.User{Email: "test@example.com", Password: "x", Role: model.RoleCustomer})
	assert.ErrorIs(t, err, ErrDuplicate)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "Doe", byID.LastName)

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	defaulted := &model.User{Email: "norole@example.com", Password: "x"}
	require.NoError(t, repo.Create(ctx, defaulted))
	assert.Equal(t, model.RoleCustomer, defaulted.Role)
}

func TestProductRepo_CRUDAndFilters(t *testing.T) {
	f := seed(t, "10.00", "25.50", "99.99")
	repo := NewProductRepository(testPool)
	ctx := context.Background()

	found, err := repo.GetByID(ctx, f.products[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Product A", found.Title)
	assert.True(t, decimal.RequireFromString("10.00").Equal(found.Price))

	from := decimal.RequireFromString("20")
	products, total, err := repo.List(ctx, ProductFilter{PriceFrom: &from, Ordering: "-price", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, products, 2)
	assert.Equal(t, "Product C", products[0].Title)

	minSize := 41.0
	_, total, err = repo.List(ctx, ProductFilter{MinSize: &minSize, Title: "product", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	found.Title = "Renamed"
	require.NoError(t, repo.Update(ctx, found))
	_, total, err = repo.List(ctx, ProductFilter{Search: "renam", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	bad := *found
	bad.CategorySlug = "missing"
	assert.ErrorIs(t, repo.Update(ctx, &bad), ErrReference)

	require.NoError(t, repo.Delete(ctx, found.ID))
	assert.ErrorIs(t, repo.Delete(ctx, found.ID), ErrNotFound)
}

func TestReviewRepo_UniqueAuthorProduct(t *testing.T) {
	f := seed(t, "10.00")
	repo := NewReviewRepository(testPool)
	ctx := context.Background()

	review := &model.Review{AuthorID: f.user.ID, ProductID: f.products[0].ID, Text: "good", Rating: 4}
	require.NoError(t, repo.Create(ctx, review))

	err := repo.Create(ctx, &model.Review{AuthorID: f.user.ID, ProductID: f.products[0].ID, Text: "again", Rating: 1})
	assert.ErrorIs(t, err, ErrDuplicate)

	pid := f.products[0].ID
	reviews, err := repo.List(ctx, &pid)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	require.NotNil(t, reviews[0].Author)
	assert.Equal(t, f.user.ID, reviews[0].Author.ID)
}

func TestRelationRepo_Toggle(t *testing.T) {
	f := seed(t, "10.00", "20.00")
	repo := NewRelationRepository(testPool)
	ctx := context.Background()

	for _, kind := range []model.RelationKind{model.RelationLike, model.RelationFavorite, model.RelationCart} {
		state, err := repo.Toggle(ctx, kind, f.user.ID, f.products[0].ID)
		require.NoError(t, err)
		assert.True(t, state, kind)

		state, err = repo.Toggle(ctx, kind, f.user.ID, f.products[0].ID)
		require.NoError(t, err)
		assert.False(t, state, kind)
	}

	_, err := repo.Toggle(ctx, model.RelationCart, f.user.ID, uuid.New())
	assert.ErrorIs(t, err, ErrReference)

	_, err = repo.Toggle(ctx, model.RelationCart, f.user.ID, f.products[1].ID)
	require.NoError(t, err)
	products, err := repo.ListActiveProducts(ctx, model.RelationCart, f.user.ID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, f.products[1].ID, products[0].ID)
}

func TestRelationRepo_ConcurrentToggleKeepsOneRow(t *testing.T) {
	f := seed(t, "10.00")
	repo := NewRelationRepository(testPool)
	ctx := context.Background()

	const callers = 25
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Toggle(ctx, model.RelationLike, f.user.ID, f.products[0].ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var rows int
	require.NoError(t, testPool.QueryRow(ctx,
		`SELECT COUNT(*) FROM likes WHERE user_id = $1 AND product_id = $2`, f.user.ID, f.products[0].ID,
	).Scan(&rows))
	assert.Equal(t, 1, rows)

	likes, err := repo.CountActive(ctx, model.RelationLike, f.products[0].ID)
	require.NoError(t, err)
	assert.Equal(t, callers%2, likes)
}

func TestOrderRepo_TxCommitAndRollback(t *testing.T) {
	f := seed(t, "10.00", "5.00")
	repo := NewOrderRepository(testPool)
	ctx := context.Background()

	var placed *model.Order
	err := repo.WithTx(ctx, func(tx OrderTx) error {
		order := &model.Order{UserID: f.user.ID, Status: model.OrderStatusNew, TotalSum: decimal.Zero}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		total := decimal.Zero
		for i, qty := range []int{2, 1} {
			price, err := tx.UnitPrice(ctx, f.products[i].ID)
			if err != nil {
				return err
			}
			total = total.Add(price.Mul(decimal.NewFromInt(int64(qty))))
			if err := tx.CreateItem(ctx, &model.OrderItem{OrderID: order.ID, ProductID: f.products[i].ID, Quantity: qty}); err != nil {
				return err
			}
		}
		placed = order
		return tx.UpdateTotal(ctx, order.ID, total)
	})
	require.NoError(t, err)

	found, err := repo.GetByID(ctx, placed.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25.00").Equal(found.TotalSum))
	assert.Len(t, found.Items, 2)

	err = repo.WithTx(ctx, func(tx OrderTx) error {
		order := &model.Order{UserID: f.user.ID, Status: model.OrderStatusNew}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		_, err := tx.UnitPrice(ctx, uuid.New())
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)

	orders, err := repo.List(ctx, OrderFilter{UserID: &f.user.ID})
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	err = repo.WithTx(ctx, func(tx OrderTx) error {
		order := &model.Order{UserID: f.user.ID, Status: model.OrderStatusNew}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		item := model.OrderItem{OrderID: order.ID, ProductID: f.products[0].ID, Quantity: 1}
		if err := tx.CreateItem(ctx, &item); err != nil {
			return err
		}
		dup := item
		return tx.CreateItem(ctx, &dup)
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	orders, err = repo.List(ctx, OrderFilter{ProductTitle: "product a"})
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	require.NoError(t, repo.UpdateStatus(ctx, placed.ID, model.OrderStatusDone))
	found, _ = repo.GetByID(ctx, placed.ID)
	assert.Equal(t, model.OrderStatusDone, found.Status)
}

func TestCategoryRepo_DeleteOrderedProductIsReference(t *testing.T) {
	f := seed(t, "10.00")
	ctx := context.Background()

	err := NewOrderRepository(testPool).WithTx(ctx, func(tx OrderTx) error {
		order := &model.Order{UserID: f.user.ID, Status: model.OrderStatusNew, TotalSum: decimal.Zero}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		return tx.CreateItem(ctx, &model.OrderItem{OrderID: order.ID, ProductID: f.products[0].ID, Quantity: 1})
	})
	require.NoError(t, err)

	repo := NewCategoryRepository(testPool)
	assert.ErrorIs(t, repo.Delete(ctx, f.category.Slug), ErrReference)

	empty := &model.Category{Slug: "empty", Title: "Empty"}
	require.NoError(t, repo.Create(ctx, empty))
	require.NoError(t, repo.Delete(ctx, empty.Slug))
	assert.ErrorIs(t, repo.Delete(ctx, empty.Slug), ErrNotFound)
}

func TestMigrateUp_ConcurrentReplicas(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	const replicas = 4
	var wg sync.WaitGroup
	errs := make(chan error, replicas)
	for i := 0; i < replicas; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- migrate.Up(ctx, testPool, log)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	migrations, err := migrate.Migrations()
	require.NoError(t, err)
	var applied int
	require.NoError(t, testPool.QueryRow(ctx,
		`SELECT COUNT(*) FROM schema_migrations WHERE status = 'applied'`,
	).Scan(&applied))
	assert.Equal(t, len(migrations), applied)
}
