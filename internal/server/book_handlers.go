package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookhub-dev/bookhub/internal/models"
	"github.com/bookhub-dev/bookhub/internal/tasks"
)

// AddBookRequest adds a physical book to the catalog
type AddBookRequest struct {
	Name   string `json:"book_name" binding:"required"`
	Author string `json:"author" binding:"required"`
}

// BorrowRequest borrows a book by name
type BorrowRequest struct {
	Name string `json:"book_name" binding:"required"`
}

// ReturnRequest returns a borrowed book by name
type ReturnRequest struct {
	Name string `json:"book_name" binding:"required"`
}

// BookDetail is the catalog entry returned by list/search
type BookDetail struct {
	Name       string     `json:"book_name"`
	Author     string     `json:"author"`
	BorrowedBy *string    `json:"borrowby"`
	BorrowDate *time.Time `json:"borrow_date"`
}

func bookDetails(books []models.Book) []BookDetail {
	details := make([]BookDetail, len(books))
	for i, b := range books {
		details[i] = BookDetail{
			Name:       b.Name,
			Author:     b.Author,
			BorrowedBy: b.BorrowedBy,
			BorrowDate: b.BorrowDate,
		}
	}
	return details
}

// @Summary List books
// @Tags books
// @Produce json
// @Security BearerAuth
// @Success 200 {array} BookDetail
// @Router /api/books [get]
func (s *Server) listBooks(c *gin.Context) {
	var books []models.Book
	if err := s.db.Order("name ASC").Find(&books).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list books")
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, bookDetails(books))
}

// @Summary Search books by name prefix
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param book_name query string true "Name prefix"
// @Success 200 {array} BookDetail
// @Router /api/search [get]
func (s *Server) searchBooks(c *gin.Context) {
	prefix := c.Query("book_name")

	var books []models.Book
	if err := s.db.Where("name LIKE ?", prefix+"%").Order("name ASC").Find(&books).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to search books")
		internalError(c)
		return
	}

	c.JSON(http.StatusOK, bookDetails(books))
}

// @Summary Add a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AddBookRequest true "Book"
// @Success 200 {object} map[string]interface{}
// @Router /api/add_book [post]
func (s *Server) addBook(c *gin.Context) {
	var req AddBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var count int64
	if err := s.db.Model(&models.Book{}).
		Where("name = ? AND author = ?", req.Name, req.Author).
		Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check for existing book")
		internalError(c)
		return
	}
	if count > 0 {
		envelope(c, http.StatusBadRequest, "Book already exists")
		return
	}

	book := &models.Book{Name: req.Name, Author: req.Author}
	if err := s.db.Create(book).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create book")
		internalError(c)
		return
	}

	s.publisher.Publish(tasks.TypeBookAdded, map[string]string{
		"book_name": req.Name,
		"author":    req.Author,
	})

	envelope(c, http.StatusCreated, "Book added successfully")
}

// @Summary Borrow a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BorrowRequest true "Borrow request"
// @Success 200 {object} map[string]interface{}
// @Router /api/borrow [put]
func (s *Server) borrowBook(c *gin.Context) {
	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, _ := GetSessionData(c)
	now := time.Now()

	// Single conditional update so two borrowers can't both win the race
	res := s.db.Model(&models.Book{}).
		Where("name = ? AND borrowed_by IS NULL", req.Name).
		Updates(map[string]interface{}{
			"borrowed_by": session.Email,
			"borrow_date": now,
		})
	if res.Error != nil {
		s.logger.Error().Err(res.Error).Msg("Failed to borrow book")
		internalError(c)
		return
	}
	if res.RowsAffected == 0 {
		envelope(c, http.StatusNotFound, "Book not found or already borrowed")
		return
	}

	s.publisher.Publish(tasks.TypeBookBorrowed, map[string]string{
		"book_name": req.Name,
		"user":      session.Email,
	})

	envelope(c, http.StatusOK, "Book borrowed successfully")
}

// @Summary Return a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ReturnRequest true "Return request"
// @Success 200 {object} map[string]interface{}
// @Router /api/return [put]
func (s *Server) returnBook(c *gin.Context) {
	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, _ := GetSessionData(c)

	var book models.Book
	if err := s.db.Where("name = ?", req.Name).First(&book).Error; err != nil {
		envelope(c, http.StatusNotFound, "Book not found or already returned")
		return
	}
	if book.BorrowedBy == nil || *book.BorrowedBy != session.Email {
		envelope(c, http.StatusBadRequest, "You can only return books borrowed by you")
		return
	}

	res := s.db.Model(&models.Book{}).
		Where("name = ? AND borrowed_by = ?", req.Name, session.Email).
		Updates(map[string]interface{}{
			"borrowed_by": nil,
			"borrow_date": nil,
		})
	if res.Error != nil {
		s.logger.Error().Err(res.Error).Msg("Failed to return book")
		internalError(c)
		return
	}
	if res.RowsAffected == 0 {
		envelope(c, http.StatusNotFound, "Book not found or already returned")
		return
	}

	s.publisher.Publish(tasks.TypeBookReturned, map[string]string{
		"book_name": req.Name,
		"user":      session.Email,
	})

	envelope(c, http.StatusOK, "Book returned successfully")
}

// @Summary Delete a book
// @Description Deletes an unborrowed book (admin only)
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param book_name path string true "Book name"
// @Success 200 {object} map[string]interface{}
// @Router /api/delete_book/{book_name} [delete]
func (s *Server) deleteBook(c *gin.Context) {
	name := c.Param("book_name")

	var book models.Book
	if err := s.db.Where("name = ?", name).First(&book).Error; err != nil {
		envelope(c, http.StatusNotFound, "Book not found")
		return
	}

	if book.Borrowed() {
		envelope(c, http.StatusBadRequest, "Cannot delete a borrowed book")
		return
	}

	if err := s.db.Delete(&book).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete book")
		internalError(c)
		return
	}

	s.publisher.Publish(tasks.TypeBookDeleted, map[string]string{"book_name": name})

	envelope(c, http.StatusOK, "Book deleted successfully")
}
