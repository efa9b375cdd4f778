package circulation

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
)

// CommandHandler executes Borrow and Return.
// Handle: lock book -> Query -> Unmarshal -> Decide -> Append (retried on lost races) -> unlock -> publish.
type CommandHandler struct {
	eventStore   shell.EventStore
	locks        *shell.BookLocks
	policy       Policy
	observer     shell.Observer
	publisher    shell.EventPublisher
	clock        func() time.Time
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithLocks shares the per-book locks with other handlers, e.g. the catalog handler.
func WithLocks(locks *shell.BookLocks) Option {
	return func(h *CommandHandler) {
		h.locks = locks
	}
}

func WithPolicy(policy Policy) Option {
	return func(h *CommandHandler) {
		h.policy = policy
	}
}

func WithObserver(observer shell.Observer) Option {
	return func(h *CommandHandler) {
		h.observer = observer
	}
}

// WithPublisher sets the publisher notified after each committed Transaction.
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

// Borrow lends the book to the user and returns the borrow Transaction.
func (h CommandHandler) Borrow(ctx context.Context, command BorrowCommand) (core.Transaction, error) {
	filter := BuildBorrowEventFilter(command.BookID, command.UserID, h.policy)

	return h.handle(ctx, command.BookID, command.CommandType(), filter, func(history core.DomainEvents) core.DecisionResult {
		return DecideBorrow(history, command, h.policy)
	})
}

// Return takes the book back from the user and returns the return Transaction.
func (h CommandHandler) Return(ctx context.Context, command ReturnCommand) (core.Transaction, error) {
	filter := shell.BookStreamFilter(command.BookID)

	return h.handle(ctx, command.BookID, command.CommandType(), filter, func(history core.DomainEvents) core.DecisionResult {
		return DecideReturn(history, command, h.policy)
	})
}

// handle runs the read-decide-append under the book's lock and publishes the committed event
// after the lock is released.
func (h CommandHandler) handle(
	ctx context.Context,
	bookID core.BookIDString,
	commandType string,
	filter eventstore.Filter,
	decide func(history core.DomainEvents) core.DecisionResult,
) (core.Transaction, error) {

	transaction, committed, err := h.decideLocked(ctx, bookID, commandType, filter, decide)
	if err != nil {
		return core.Transaction{}, err
	}

	shell.PublishCommitted(ctx, h.publisher, h.observer.Logger(), committed)

	return transaction, nil
}

func (h CommandHandler) decideLocked(
	ctx context.Context,
	bookID core.BookIDString,
	commandType string,
	filter eventstore.Filter,
	decide func(history core.DomainEvents) core.DecisionResult,
) (core.Transaction, shell.EventEnvelope, error) {

	unlock := h.locks.Lock(bookID)
	defer unlock()

	var (
		transaction core.Transaction
		committed   shell.EventEnvelope
	)

	err := shell.ExecuteCommand(ctx, h.observer, commandType, h.retryOptions, func(ctx context.Context) (bool, error) {
		history, maxSequenceNumber, err := shell.QueryDomainEvents(ctx, h.eventStore, filter)
		if err != nil {
			return false, err
		}

		result := decide(history)
		if err = result.HasError(); err != nil {
			return false, err
		}

		committed, err = shell.AppendDecidedEvent(ctx, h.eventStore, filter, maxSequenceNumber, result.Event)
		if err != nil {
			return false, err
		}

		transaction, _ = core.TransactionFrom(result.Event, 0)

		return false, nil
	})

	return transaction, committed, err
}
