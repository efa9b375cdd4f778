package catalog

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

// CommandHandler executes the Catalog Admin commands.
type CommandHandler struct {
	eventStore   shell.EventStore
	locks        *shell.BookLocks
	observer     shell.Observer
	publisher    shell.EventPublisher
	clock        func() time.Time
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithLocks shares the per-book locks with other handlers, e.g. the circulation handler.
func WithLocks(locks *shell.BookLocks) Option {
	return func(h *CommandHandler) {
		h.locks = locks
	}
}

func WithObserver(observer shell.Observer) Option {
	return func(h *CommandHandler) {
		h.observer = observer
	}
}

// WithPublisher sets the publisher notified after each committed event.
func WithPublisher(publisher shell.EventPublisher) Option {
	return func(h *CommandHandler) {
		h.publisher = publisher
	}
}

func WithClock(clock func() time.Time) Option {
	return func(h *CommandHandler) {
		h.clock = clock
	}
}

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

func NewCommandHandler(eventStore shell.EventStore, opts ...Option) CommandHandler {
	handler := CommandHandler{
		eventStore: eventStore,
		locks:      shell.NewBookLocks(),
		publisher:  shell.NoopPublisher{},
		clock:      time.Now,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Now returns the time of the handler's clock, used to build commands.
func (h CommandHandler) Now() time.Time {
	return h.clock()
}

// AddBook adds a book to the catalog. Each call creates a new book, even for the same title and author.
func (h CommandHandler) AddBook(ctx context.Context, command AddBookCommand) (core.Book, error) {
	var (
		book      core.Book
		committed shell.EventEnvelope
	)

	err := shell.ExecuteCommand(ctx, h.observer, command.CommandType(), h.retryOptions, func(ctx context.Context) (bool, error) {
		result := DecideAddBook(command)
		if err := result.HasError(); err != nil {
			return false, err
		}

		// a fresh BookID has an empty stream
		envelope, err := shell.AppendDecidedEvent(ctx, h.eventStore, shell.BookStreamFilter(command.BookID.String()), 0, result.Event)
		if err != nil {
			return false, err
		}

		book = core.ProjectBook(core.DomainEvents{result.Event}, command.BookID.String()).ToBook()
		committed = envelope

		return false, nil
	})
	if err != nil {
		return core.Book{}, err
	}

	h.publish(ctx, &committed)

	return book, nil
}

// UpdateBook changes the title and/or author of a book and returns the updated book.
func (h CommandHandler) UpdateBook(ctx context.Context, command UpdateBookCommand) (core.Book, error) {
	var (
		book      core.Book
		committed *shell.EventEnvelope
	)

	err := h.whileLocked(command.BookID, func() error {
		return shell.ExecuteCommand(ctx, h.observer, command.CommandType(), h.retryOptions, func(ctx context.Context) (bool, error) {
			filter := shell.BookStreamFilter(command.BookID)

			history, maxSequenceNumber, err := shell.QueryDomainEvents(ctx, h.eventStore, filter)
			if err != nil {
				return false, err
			}

			result := DecideUpdateBook(history, command)
			if err = result.HasError(); err != nil {
				return false, err
			}

			if result.IsIdempotent() {
				book = core.ProjectBook(history, command.BookID).ToBook()
				return true, nil
			}

			envelope, err := shell.AppendDecidedEvent(ctx, h.eventStore, filter, maxSequenceNumber, result.Event)
			if err != nil {
				return false, err
			}

			book = core.ProjectBook(append(history, result.Event), command.BookID).ToBook()
			committed = &envelope

			return false, nil
		})
	})
	if err != nil {
		return core.Book{}, err
	}

	h.publish(ctx, committed)

	return book, nil
}

// RemoveBook removes a book which is not on loan from the catalog.
func (h CommandHandler) RemoveBook(ctx context.Context, command RemoveBookCommand) error {
	var committed *shell.EventEnvelope

	err := h.whileLocked(command.BookID, func() error {
		return shell.ExecuteCommand(ctx, h.observer, command.CommandType(), h.retryOptions, func(ctx context.Context) (bool, error) {
			filter := shell.BookStreamFilter(command.BookID)

			history, maxSequenceNumber, err := shell.QueryDomainEvents(ctx, h.eventStore, filter)
			if err != nil {
				return false, err
			}

			result := DecideRemoveBook(history, command)
			if err = result.HasError(); err != nil {
				return false, err
			}

			envelope, err := shell.AppendDecidedEvent(ctx, h.eventStore, filter, maxSequenceNumber, result.Event)
			if err != nil {
				return false, err
			}

			committed = &envelope

			return false, nil
		})
	})
	if err != nil {
		return err
	}

	h.publish(ctx, committed)

	return nil
}

func (h CommandHandler) whileLocked(bookID core.BookIDString, fn func() error) error {
	unlock := h.locks.Lock(bookID)
	defer unlock()

	return fn()
}

// publish runs outside the book's lock, a slow broker must not hold up other commands on the book.
func (h CommandHandler) publish(ctx context.Context, committed *shell.EventEnvelope) {
	if committed == nil {
		return
	}

	shell.PublishCommitted(ctx, h.publisher, h.observer.Logger(), *committed)
}
