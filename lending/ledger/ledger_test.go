package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/eventstore/memoryengine"
	"github.com/AntonStoeckl/library-lending-go/lending/ledger"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/testutil/helper"
)

type fixture struct {
	ledger ledger.Ledger
	book1  uuid.UUID
	book2  uuid.UUID
	user1  uuid.UUID
	user2  uuid.UUID
	start  time.Time
}

// givenLedger appends, one minute apart:
// book1 borrowed by user1, book2 borrowed by user2, book1 returned by user1, book1 borrowed by user2.
func givenLedger(t *testing.T) fixture {
	ctx := context.Background()
	es := memoryengine.NewEventStore()
	f := fixture{
		ledger: ledger.NewLedger(es),
		book1:  helper.GivenUniqueID(t),
		book2:  helper.GivenUniqueID(t),
		user1:  helper.GivenUniqueID(t),
		user2:  helper.GivenUniqueID(t),
		start:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	helper.GivenBookAddedToCatalogWasAppended(t, ctx, es, f.book1, f.start)
	helper.GivenBookAddedToCatalogWasAppended(t, ctx, es, f.book2, f.start)
	helper.GivenBookBorrowedWasAppended(t, ctx, es, f.book1, f.user1, f.start.Add(1*time.Minute))
	helper.GivenBookBorrowedWasAppended(t, ctx, es, f.book2, f.user2, f.start.Add(2*time.Minute))
	helper.GivenBookReturnedWasAppended(t, ctx, es, f.book1, f.user1, f.start.Add(3*time.Minute))
	helper.GivenBookBorrowedWasAppended(t, ctx, es, f.book1, f.user2, f.start.Add(4*time.Minute))

	return f
}

func Test_ListForBook_IsChronological(t *testing.T) {
	// arrange
	f := givenLedger(t)

	// act
	transactions, err := f.ledger.ListForBook(context.Background(), f.book1.String())

	// assert
	require.NoError(t, err)
	require.Len(t, transactions, 3)
	assert.Equal(t, []core.TransactionType{"borrow", "return", "borrow"}, typesOf(transactions))
	for i := 1; i < len(transactions); i++ {
		assert.Greater(t, transactions[i].SequenceNumber, transactions[i-1].SequenceNumber)
		assert.False(t, transactions[i].Date.Before(transactions[i-1].Date))
	}
}

func Test_ListForBook_UnknownBookIsEmpty(t *testing.T) {
	// arrange
	f := givenLedger(t)

	// act
	transactions, err := f.ledger.ListForBook(context.Background(), uuid.NewString())

	// assert
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func Test_ListForBook_EmptyBookIDIsEmpty(t *testing.T) {
	// arrange
	f := givenLedger(t)

	// act
	transactions, err := f.ledger.ListForBook(context.Background(), "")

	// assert
	require.NoError(t, err)
	assert.NotNil(t, transactions)
	assert.Empty(t, transactions, "the transactions of other books must not leak into the list")
}

func Test_ListAll_Filters(t *testing.T) {
	f := givenLedger(t)

	testCases := []struct {
		name      string
		filter    ledger.TransactionFilter
		wantTypes []core.TransactionType
	}{
		{name: "default_newest_first", filter: ledger.TransactionFilter{}, wantTypes: []string{"borrow", "return", "borrow", "borrow"}},
		{name: "oldest_first", filter: ledger.TransactionFilter{Order: ledger.OrderOldestFirst}, wantTypes: []string{"borrow", "borrow", "return", "borrow"}},
		{name: "by_type", filter: ledger.TransactionFilter{Type: core.TransactionTypeReturn}, wantTypes: []string{"return"}},
		{name: "by_user", filter: ledger.TransactionFilter{UserID: f.user1.String(), Order: ledger.OrderOldestFirst}, wantTypes: []string{"borrow", "return"}},
		{name: "by_user_and_book", filter: ledger.TransactionFilter{UserID: f.user2.String(), BookID: f.book1.String()}, wantTypes: []string{"borrow"}},
		{name: "from", filter: ledger.TransactionFilter{From: f.start.Add(3 * time.Minute)}, wantTypes: []string{"borrow", "return"}},
		{name: "until", filter: ledger.TransactionFilter{Until: f.start.Add(1 * time.Minute)}, wantTypes: []string{"borrow"}},
		{name: "limit", filter: ledger.TransactionFilter{Limit: 1}, wantTypes: []string{"borrow"}},
		{name: "offset", filter: ledger.TransactionFilter{Offset: 1, Limit: 2, Order: ledger.OrderOldestFirst}, wantTypes: []string{"borrow", "return"}},
		{name: "offset_beyond_end", filter: ledger.TransactionFilter{Offset: 10}, wantTypes: []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			transactions, err := f.ledger.ListAll(context.Background(), tc.filter)

			// assert
			require.NoError(t, err)
			assert.Equal(t, tc.wantTypes, typesOf(transactions))
		})
	}
}

func Test_ListAll_NewestFirstStartsWithTheLatestTransaction(t *testing.T) {
	// arrange
	f := givenLedger(t)

	// act
	transactions, err := f.ledger.ListAll(context.Background(), ledger.TransactionFilter{})

	// assert
	require.NoError(t, err)
	assert.Equal(t, f.user2.String(), transactions[0].User.ID)
	assert.Equal(t, f.book1.String(), transactions[0].Book.ID)
	assert.Equal(t, "Learning Domain-Driven Design", transactions[0].Book.Title)
}

func Test_TransactionFilter_Normalized(t *testing.T) {
	testCases := []struct {
		name    string
		filter  ledger.TransactionFilter
		wantErr error
	}{
		{name: "invalid_type", filter: ledger.TransactionFilter{Type: "lend"}, wantErr: core.ErrInvalidTransactionType},
		{name: "invalid_order", filter: ledger.TransactionFilter{Order: "random"}, wantErr: core.ErrInvalidOrder},
		{name: "negative_limit", filter: ledger.TransactionFilter{Limit: -1}, wantErr: core.ErrInvalidPaging},
		{name: "negative_offset", filter: ledger.TransactionFilter{Offset: -1}, wantErr: core.ErrInvalidPaging},
		{name: "inverted_range", filter: ledger.TransactionFilter{From: time.Now(), Until: time.Now().Add(-time.Hour)}, wantErr: core.ErrInvalidTimeRange},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := tc.filter.Normalized()

			// assert
			assert.ErrorIs(t, err, tc.wantErr)
			assert.ErrorIs(t, err, core.ErrInvalidArgument)
		})
	}
}

func Test_TransactionFilter_Normalized_Defaults(t *testing.T) {
	// act
	normalized, err := ledger.TransactionFilter{Limit: 10_000}.Normalized()

	// assert
	require.NoError(t, err)
	assert.Equal(t, ledger.OrderNewestFirst, normalized.Order)
	assert.Equal(t, ledger.MaxLimit, normalized.Limit)

	normalized, err = ledger.TransactionFilter{}.Normalized()
	require.NoError(t, err)
	assert.Equal(t, ledger.DefaultLimit, normalized.Limit)
}

func typesOf(transactions []core.Transaction) []core.TransactionType {
	types := make([]core.TransactionType, 0, len(transactions))
	for _, transaction := range transactions {
		types = append(types, transaction.Type)
	}

	return types
}
