package eventstore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/eventstore"
)

//nolint:funlen
func Test_FilterBuilder_ValidCombinations(t *testing.T) {
	tests := []struct {
		name     string
		build    func() eventstore.Filter
		validate func(t *testing.T, filter eventstore.Filter)
	}{
		{
			name: "matching_any_event_creates_empty_filter",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().MatchingAnyEvent()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Empty(t, f.Items())
				assert.True(t, f.OccurredFrom().IsZero())
				assert.True(t, f.OccurredUntil().IsZero())
			},
		},
		{
			name: "time_range_only_filter_has_no_items",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					OccurredFrom(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)).
					OccurredUntil(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)).
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Empty(t, f.Items())
				assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), f.OccurredFrom())
				assert.Equal(t, time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC), f.OccurredUntil())
			},
		},
		{
			name: "event_types_are_sorted_and_deduplicated",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					Matching().
					AnyEventTypeOf("BookReturned", "BookBorrowed", "", "BookReturned").
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Len(t, f.Items(), 1)
				assert.Equal(t, []string{"BookBorrowed", "BookReturned"}, f.Items()[0].EventTypes())
				assert.Empty(t, f.Items()[0].Predicates())
			},
		},
		{
			name: "partial_predicates_are_removed",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					Matching().
					AnyPredicateOf(
						eventstore.P("UserID", "u-1"),
						eventstore.P("", "x"),
						eventstore.P("BookID", ""),
						eventstore.P("BookID", "b-1"),
					).
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Len(t, f.Items(), 1)
				assert.Equal(
					t,
					[]eventstore.FilterPredicate{eventstore.P("BookID", "b-1"), eventstore.P("UserID", "u-1")},
					f.Items()[0].Predicates(),
				)
				assert.False(t, f.Items()[0].AllPredicatesMustMatch())
			},
		},
		{
			name: "event_types_and_all_predicates",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					Matching().
					AnyEventTypeOf("BookBorrowed").
					AndAllPredicatesOf(eventstore.P("BookID", "b-1"), eventstore.P("UserID", "u-1")).
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Len(t, f.Items(), 1)
				assert.Equal(t, []string{"BookBorrowed"}, f.Items()[0].EventTypes())
				assert.Len(t, f.Items()[0].Predicates(), 2)
				assert.True(t, f.Items()[0].AllPredicatesMustMatch())
			},
		},
		{
			name: "or_matching_creates_multiple_items",
			build: func() eventstore.Filter {
				return eventstore.BuildEventFilter().
					Matching().
					AnyEventTypeOf("BookAddedToCatalog").
					AndAnyPredicateOf(eventstore.P("BookID", "b-1")).
					OrMatching().
					AnyEventTypeOf("BookBorrowed").
					AndAnyPredicateOf(eventstore.P("UserID", "u-1")).
					OccurredFrom(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)).
					Finalize()
			},
			validate: func(t *testing.T, f eventstore.Filter) {
				assert.Len(t, f.Items(), 2)
				assert.Equal(t, []string{"BookAddedToCatalog"}, f.Items()[0].EventTypes())
				assert.Equal(t, []string{"BookBorrowed"}, f.Items()[1].EventTypes())
				assert.False(t, f.OccurredFrom().IsZero())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, tt.build())
		})
	}
}

func Test_FilterBuilder_IsImmutable(t *testing.T) {
	base := eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf("BookBorrowed")

	first := base.AndAnyPredicateOf(eventstore.P("BookID", "b-1")).Finalize()
	second := base.AndAnyPredicateOf(eventstore.P("BookID", "b-2")).Finalize()

	assert.Equal(t, "b-1", first.Items()[0].Predicates()[0].Val())
	assert.Equal(t, "b-2", second.Items()[0].Predicates()[0].Val())
}
