package usecase

import (
	"context"
	"net/http"
	"testing"

	"bookstore/internal/domain/model"
	repo "bookstore/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestBookUsecase_List_InvalidPage(t *testing.T) {
	uc := NewBookUsecase(new(BookRepoMock))

	_, err := uc.List(context.Background(), ListBooksInput{Page: 0, Limit: 20})
	assertErrContains(t, err, "invalid page")
}

func TestBookUsecase_List_InvalidLimit(t *testing.T) {
	uc := NewBookUsecase(new(BookRepoMock))

	_, err := uc.List(context.Background(), ListBooksInput{Page: 1, Limit: 101})
	assertErrContains(t, err, "invalid limit")
}

func TestBookUsecase_List_Success(t *testing.T) {
	books := new(BookRepoMock)
	uc := NewBookUsecase(books)

	books.On("List", mock.Anything, repo.BookListQuery{Page: 1, Limit: 20, Q: "dune"}).
		Return([]model.Book{{ID: 1, Title: "Dune", IsActive: true}}, int64(1), nil)

	out, err := uc.List(context.Background(), ListBooksInput{Page: 1, Limit: 20, Q: " dune "})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 20, out.Limit)
	assert.Equal(t, 1, len(out.Items))

	books.AssertExpectations(t)
}

func TestBookUsecase_Get_NotFound(t *testing.T) {
	books := new(BookRepoMock)
	books.On("FindByID", mock.Anything, int64(5)).Return(model.Book{}, repo.ErrNotFound)
	uc := NewBookUsecase(books)

	_, err := uc.Get(context.Background(), 5)
	assertStatus(t, err, http.StatusNotFound)
}
