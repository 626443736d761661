package usecase

import (
	"context"
	"errors"
	"net/http"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase owns the per-user cart. Prices are always read live from the
// catalog; the cart stores quantities only.
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	bookRepo     repo.BookRepository
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	bookRepo repo.BookRepository,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		bookRepo:     bookRepo,
	}
}

type CartItemView struct {
	BookID    int64           `json:"bookId"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type CartView struct {
	Items []CartItemView  `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// GetOrCreate returns the user's cart, creating an empty one on first access.
func (u *CartUsecase) GetOrCreate(ctx context.Context, userID int64) (CartView, error) {
	if userID <= 0 {
		return CartView{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartView(ctx, cart.ID)
}

// AddItem adds qty of a book; an existing line accumulates.
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, bookID int64, qty int64) (CartView, error) {
	if userID <= 0 {
		return CartView{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if bookID <= 0 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}
	if qty < 1 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "Quantity must be at least 1")
	}

	if _, err := u.bookRepo.FindByID(ctx, bookID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartView{}, NewHTTPError(http.StatusNotFound, "Book not found")
		}
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	cart, err := u.cartRepo.GetOrCreateByUserID(ctx, userID)
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.cartItemRepo.AddQuantity(ctx, cart.ID, bookID, qty); err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartView(ctx, cart.ID)
}

// SetItemQuantity overwrites a line. qty <= 0 removes it.
func (u *CartUsecase) SetItemQuantity(ctx context.Context, userID int64, bookID int64, qty int64) (CartView, error) {
	if qty <= 0 {
		return u.RemoveItem(ctx, userID, bookID)
	}
	if userID <= 0 {
		return CartView{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if bookID <= 0 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	cart, err := u.cartRepo.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartView{}, NewHTTPError(http.StatusNotFound, "Cart item not found")
	}
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.cartItemRepo.SetQuantity(ctx, cart.ID, bookID, qty); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartView{}, NewHTTPError(http.StatusNotFound, "Cart item not found")
		}
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartView(ctx, cart.ID)
}

func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, bookID int64) (CartView, error) {
	if userID <= 0 {
		return CartView{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if bookID <= 0 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid book id")
	}

	cart, err := u.cartRepo.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartView{}, NewHTTPError(http.StatusNotFound, "Cart item not found")
	}
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.cartItemRepo.DeleteByBook(ctx, cart.ID, bookID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartView{}, NewHTTPError(http.StatusNotFound, "Cart item not found")
		}
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildCartView(ctx, cart.ID)
}

// Clear drops the cart and its lines. No cart is not an error.
func (u *CartUsecase) Clear(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.cartRepo.Delete(ctx, cart.ID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// Total is the live value of the cart. A missing or empty cart is zero.
func (u *CartUsecase) Total(ctx context.Context, userID int64) (decimal.Decimal, error) {
	cart, err := u.cartRepo.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	view, err := u.buildCartView(ctx, cart.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return view.Total, nil
}

func (u *CartUsecase) buildCartView(ctx context.Context, cartID int64) (CartView, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return priceCart(ctx, u.bookRepo, items)
}

// priceCart joins lines with the catalog. Lines whose book is gone or
// inactive are left out of the view and the total.
func priceCart(ctx context.Context, books repo.BookRepository, items []model.CartItem) (CartView, error) {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.BookID)
	}
	byID, err := books.FindByIDs(ctx, ids)
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	view := CartView{Items: make([]CartItemView, 0, len(items)), Total: decimal.Zero}
	for _, it := range items {
		b, ok := byID[it.BookID]
		if !ok {
			continue
		}
		line := b.Price.Mul(decimal.NewFromInt(it.Quantity))
		view.Items = append(view.Items, CartItemView{
			BookID:    it.BookID,
			Title:     b.Title,
			UnitPrice: b.Price,
			Quantity:  it.Quantity,
			LineTotal: line,
		})
		view.Total = view.Total.Add(line)
	}
	return view, nil
}
