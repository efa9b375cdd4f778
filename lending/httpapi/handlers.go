package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/AntonStoeckl/library-lending-go/lending/catalog"
	"github.com/AntonStoeckl/library-lending-go/lending/circulation"
	"github.com/AntonStoeckl/library-lending-go/lending/queries"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

const messageBookRemoved = "book removed"

func (s server) signup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	user, err := s.Users.Create(c.UserContext(), req.Username, req.Password, core.RolePatron)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

func (s server) login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil || req.Username == "" || req.Password == "" {
		return core.ErrInvalidCredential
	}

	user, err := s.Users.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	token, expiresAt, err := s.Tokens.Issue(user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"token": token, "role": user.Role, "user": user, "expiresAt": expiresAt})
}

func (s server) listBooks(c *fiber.Ctx) error {
	books, err := s.Books.List(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"books": books})
}

func (s server) availableBooks(c *fiber.Ctx) error {
	books, err := s.Queries.AvailableBooks(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"books": books})
}

func (s server) borrowedBooks(c *fiber.Ctx) error {
	userID, err := queries.ScopeToViewer(currentUser(c), c.Query("userId"))
	if err != nil {
		return err
	}

	books, err := s.Queries.BorrowedBooks(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"books": books})
}

func (s server) getBook(c *fiber.Ctx) error {
	book, err := s.Books.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"book": book})
}

func (s server) addBook(c *fiber.Ctx) error {
	var req addBookRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	command := catalog.BuildAddBookCommand(shell.NewID(), req.Title, req.Author, s.Catalog.Now())

	book, err := s.Catalog.AddBook(c.UserContext(), command)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"book": book})
}

func (s server) updateBook(c *fiber.Ctx) error {
	var req updateBookRequest
	if err := s.parseBody(c, &req); err != nil {
		return err
	}

	command := catalog.BuildUpdateBookCommand(c.Params("id"), req.Title, req.Author, s.Catalog.Now())

	book, err := s.Catalog.UpdateBook(c.UserContext(), command)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"book": book})
}

func (s server) removeBook(c *fiber.Ctx) error {
	command := catalog.BuildRemoveBookCommand(c.Params("id"), s.Catalog.Now())

	if err := s.Catalog.RemoveBook(c.UserContext(), command); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": messageBookRemoved})
}

func (s server) borrowBook(c *fiber.Ctx) error {
	command := circulation.BuildBorrowCommand(c.Params("id"), currentUser(c).ID, s.Circulation.Now())

	transaction, err := s.Circulation.Borrow(c.UserContext(), command)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"transaction": transaction})
}

func (s server) returnBook(c *fiber.Ctx) error {
	command := circulation.BuildReturnCommand(c.Params("id"), currentUser(c).ID, s.Circulation.Now())

	transaction, err := s.Circulation.Return(c.UserContext(), command)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"transaction": transaction})
}

func (s server) transactions(c *fiber.Ctx) error {
	var query transactionsQuery
	if err := c.QueryParser(&query); err != nil {
		return core.NewInvalidArgument("query parameters are not valid")
	}

	if err := s.validateStruct(query); err != nil {
		return err
	}

	filter, err := query.toFilter()
	if err != nil {
		return err
	}

	filter.UserID, err = queries.ScopeToViewer(currentUser(c), filter.UserID)
	if err != nil {
		return err
	}

	transactions, err := s.Queries.TransactionHistory(c.UserContext(), filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"transactions": transactions})
}
