package usecase

import (
	"context"
	"net/http"
	"testing"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type cartFixture struct {
	carts *CartRepoMock
	items *CartItemRepoMock
	books *BookRepoMock
	uc    *CartUsecase
}

func newCartFixture() *cartFixture {
	f := &cartFixture{carts: new(CartRepoMock), items: new(CartItemRepoMock), books: new(BookRepoMock)}
	f.uc = NewCartUsecase(f.carts, f.items, f.books)
	return f
}

func TestCartUsecase_AddItem_Validation(t *testing.T) {
	f := newCartFixture()

	_, err := f.uc.AddItem(context.Background(), 0, 1, 1)
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = f.uc.AddItem(context.Background(), 1, 1, 0)
	assertStatus(t, err, http.StatusBadRequest)
	assertErrContains(t, err, "Quantity must be at least 1")

	f.books.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestCartUsecase_AddItem_UnknownBook(t *testing.T) {
	f := newCartFixture()
	f.books.On("FindByID", mock.Anything, int64(42)).Return(model.Book{}, repo.ErrNotFound)

	_, err := f.uc.AddItem(context.Background(), 1, 42, 1)
	assertStatus(t, err, http.StatusNotFound)
	assertErrContains(t, err, "Book not found")
	f.items.AssertNotCalled(t, "AddQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_AddItem_Accumulates(t *testing.T) {
	f := newCartFixture()
	dune := model.Book{ID: 1, Title: "Dune", Price: decimal.RequireFromString("12.50"), IsActive: true}

	f.books.On("FindByID", mock.Anything, int64(1)).Return(dune, nil)
	f.carts.On("GetOrCreateByUserID", mock.Anything, int64(7)).Return(model.Cart{ID: 3, UserID: 7}, nil)
	f.items.On("AddQuantity", mock.Anything, int64(3), int64(1), int64(2)).Return(nil)
	f.items.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		{CartID: 3, BookID: 1, Quantity: 3},
	}, nil)
	f.books.On("FindByIDs", mock.Anything, []int64{1}).Return(map[int64]model.Book{1: dune}, nil)

	view, err := f.uc.AddItem(context.Background(), 7, 1, 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(3), view.Items[0].Quantity)
	assert.True(t, view.Total.Equal(decimal.RequireFromString("37.50")), view.Total.String())

	f.items.AssertExpectations(t)
}

func TestCartUsecase_SetItemQuantity_ZeroRemoves(t *testing.T) {
	f := newCartFixture()
	f.carts.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{ID: 3, UserID: 7}, nil)
	f.items.On("DeleteByBook", mock.Anything, int64(3), int64(1)).Return(nil)
	f.items.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{}, nil)
	f.books.On("FindByIDs", mock.Anything, mock.Anything).Return(map[int64]model.Book{}, nil)

	view, err := f.uc.SetItemQuantity(context.Background(), 7, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())

	f.items.AssertNotCalled(t, "SetQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_SetItemQuantity_MissingLine(t *testing.T) {
	f := newCartFixture()
	f.carts.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{ID: 3, UserID: 7}, nil)
	f.items.On("SetQuantity", mock.Anything, int64(3), int64(9), int64(4)).Return(repo.ErrNotFound)

	_, err := f.uc.SetItemQuantity(context.Background(), 7, 9, 4)
	assertStatus(t, err, http.StatusNotFound)
	assertErrContains(t, err, "Cart item not found")
}

func TestCartUsecase_Clear_NoCartIsNoop(t *testing.T) {
	f := newCartFixture()
	f.carts.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{}, repo.ErrNotFound)

	assert.NoError(t, f.uc.Clear(context.Background(), 7))
	f.carts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCartUsecase_Total(t *testing.T) {
	t.Run("no cart is zero", func(t *testing.T) {
		f := newCartFixture()
		f.carts.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{}, repo.ErrNotFound)

		total, err := f.uc.Total(context.Background(), 7)
		require.NoError(t, err)
		assert.True(t, total.IsZero())
	})

	t.Run("skips books gone from the catalog", func(t *testing.T) {
		f := newCartFixture()
		f.carts.On("FindByUserID", mock.Anything, int64(7)).Return(model.Cart{ID: 3, UserID: 7}, nil)
		f.items.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
			{CartID: 3, BookID: 1, Quantity: 2},
			{CartID: 3, BookID: 2, Quantity: 1},
		}, nil)
		f.books.On("FindByIDs", mock.Anything, []int64{1, 2}).Return(map[int64]model.Book{
			1: {ID: 1, Title: "Emma", Price: decimal.RequireFromString("4.99")},
		}, nil)

		total, err := f.uc.Total(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, "9.98", total.StringFixed(2))
	})
}
