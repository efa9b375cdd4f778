package eventstore

import (
	"slices"
	"strings"
	"time"
)

type FilterEventTypeString = string
type FilterKeyString = string
type FilterValString = string

/***** Filter *****/

// Filter selects a "dynamic event stream". Items are OR-ed, the time range is AND-ed with all items.
type Filter struct {
	items         []FilterItem
	occurredFrom  time.Time
	occurredUntil time.Time
}

func (f Filter) Items() []FilterItem {
	return f.items
}

// OccurredFrom returns the inclusive lower time bound, zero if unbounded.
func (f Filter) OccurredFrom() time.Time {
	return f.occurredFrom
}

// OccurredUntil returns the inclusive upper time bound, zero if unbounded.
func (f Filter) OccurredUntil() time.Time {
	return f.occurredUntil
}

/***** FilterItem *****/

type FilterItem struct {
	eventTypes             []FilterEventTypeString
	predicates             []FilterPredicate
	allPredicatesMustMatch bool
}

func (fi FilterItem) EventTypes() []FilterEventTypeString {
	return fi.eventTypes
}

func (fi FilterItem) Predicates() []FilterPredicate {
	return fi.predicates
}

func (fi FilterItem) AllPredicatesMustMatch() bool {
	return fi.allPredicatesMustMatch
}

func (fi FilterItem) isEmpty() bool {
	return len(fi.eventTypes) == 0 && len(fi.predicates) == 0
}

/***** FilterPredicate *****/

type FilterPredicate struct {
	key FilterKeyString
	val FilterValString
}

func P(key FilterKeyString, val FilterValString) FilterPredicate {
	return FilterPredicate{key: key, val: val}
}

func (fp FilterPredicate) Key() FilterKeyString {
	return fp.key
}

func (fp FilterPredicate) Val() FilterValString {
	return fp.val
}

/***** FilterBuilder *****/

// FilterBuilder builds a generic event filter to be used in engine-specific eventstore implementations.
// It is designed to only allow "useful" filter combinations for event-sourced workflows:
//
//   - empty filter
//   - (eventType)
//   - (eventType OR eventType...)
//   - (predicate)
//   - (predicate OR predicate...)
//   - (predicate AND predicate...)
//   - (eventType AND predicate)
//   - (eventType AND (predicate OR predicate...))
//   - (eventType AND (predicate AND predicate...))
//   - ((eventType OR eventType...) AND (predicate OR predicate...))
//   - ((eventType OR eventType...) AND (predicate AND predicate...))
//   - ((eventType AND predicate) OR (eventType AND predicate)...) -> multiple FilterItem(s)
//
// Each of them can be narrowed down by an OccurredFrom/OccurredUntil time range.
type FilterBuilder interface {
	// Matching starts a new FilterItem.
	Matching() EmptyFilterItemBuilder

	// MatchingAnyEvent directly creates an empty Filter.
	MatchingAnyEvent() Filter

	TimeRangeBuilder
}

// TimeRangeBuilder narrows down a Filter to events which occurred in a time range.
type TimeRangeBuilder interface {
	// OccurredFrom sets the inclusive lower bound. A zero time is ignored.
	OccurredFrom(from time.Time) TimeRangeBuilder

	// OccurredUntil sets the inclusive upper bound. A zero time is ignored.
	OccurredUntil(until time.Time) TimeRangeBuilder

	// Finalize returns the Filter.
	Finalize() Filter
}

type EmptyFilterItemBuilder interface {
	// AnyEventTypeOf adds one or multiple EventTypes to the current FilterItem.
	//
	// It sanitizes the input:
	//	- removing empty EventTypes ("")
	//	- sorting the EventTypes
	//	- removing duplicate EventTypes
	AnyEventTypeOf(eventType FilterEventTypeString, eventTypes ...FilterEventTypeString) FilterItemBuilderLackingPredicates

	// AnyPredicateOf adds one or multiple FilterPredicate(s) to the current FilterItem.
	//
	// It sanitizes the input:
	//	- removing empty/partial FilterPredicate(s) (key or val is "")
	//	- sorting the FilterPredicate(s)
	//	- removing duplicate FilterPredicate(s)
	AnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingEventTypes

	AllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingEventTypes
}

type FilterItemBuilderLackingPredicates interface {
	AndAnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder

	AndAllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder

	// OrMatching finalizes the current FilterItem and starts a new one.
	OrMatching() EmptyFilterItemBuilder

	TimeRangeBuilder
}

type FilterItemBuilderLackingEventTypes interface {
	AndAnyEventTypeOf(eventType FilterEventTypeString, eventTypes ...FilterEventTypeString) CompletedFilterItemBuilder

	// OrMatching finalizes the current FilterItem and starts a new one.
	OrMatching() EmptyFilterItemBuilder

	TimeRangeBuilder
}

type CompletedFilterItemBuilder interface {
	// OrMatching finalizes the current FilterItem and starts a new one.
	OrMatching() EmptyFilterItemBuilder

	TimeRangeBuilder
}

// filterBuilder implements all the interfaces of FilterBuilder
type filterBuilder struct {
	filter            Filter
	currentFilterItem FilterItem
}

// BuildEventFilter creates a FilterBuilder which must eventually be finalized with Finalize() or MatchingAnyEvent().
func BuildEventFilter() FilterBuilder {
	return filterBuilder{}
}

// Matching starts a new FilterItem.
func (fb filterBuilder) Matching() EmptyFilterItemBuilder {
	fb.currentFilterItem = FilterItem{}

	return fb
}

// AnyEventTypeOf adds one or multiple EventTypes to the current FilterItem expecting ANY EventType to match.
func (fb filterBuilder) AnyEventTypeOf(
	eventType FilterEventTypeString,
	eventTypes ...FilterEventTypeString,
) FilterItemBuilderLackingPredicates {

	fb.currentFilterItem.eventTypes = fb.sanitizeEventTypes(
		append(slices.Clone(fb.currentFilterItem.eventTypes), append([]FilterEventTypeString{eventType}, eventTypes...)...),
	)

	return fb
}

// AndAnyEventTypeOf adds one or multiple EventTypes to the current FilterItem expecting ANY EventType to match.
func (fb filterBuilder) AndAnyEventTypeOf(
	eventType FilterEventTypeString,
	eventTypes ...FilterEventTypeString,
) CompletedFilterItemBuilder {

	return fb.AnyEventTypeOf(eventType, eventTypes...)
}

func (fb filterBuilder) sanitizeEventTypes(allEventTypes []FilterEventTypeString) []FilterEventTypeString {
	allEventTypes = slices.DeleteFunc(
		allEventTypes,
		func(e FilterEventTypeString) bool {
			return e == ""
		})
	slices.Sort(allEventTypes)
	allEventTypes = slices.Compact(allEventTypes)
	allEventTypes = slices.Clip(allEventTypes)

	return allEventTypes
}

// AnyPredicateOf adds one or multiple FilterPredicate(s) to the current FilterItem expecting ANY predicate to match.
func (fb filterBuilder) AnyPredicateOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) FilterItemBuilderLackingEventTypes {

	fb.currentFilterItem.predicates = fb.sanitizePredicates(
		append(slices.Clone(fb.currentFilterItem.predicates), append([]FilterPredicate{predicate}, predicates...)...),
	)

	return fb
}

// AndAnyPredicateOf adds one or multiple FilterPredicate(s) to the current FilterItem expecting ANY predicate to match.
func (fb filterBuilder) AndAnyPredicateOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	return fb.AnyPredicateOf(predicate, predicates...)
}

// AllPredicatesOf adds one or multiple FilterPredicate(s) to the current FilterItem expecting ALL predicates to match.
func (fb filterBuilder) AllPredicatesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) FilterItemBuilderLackingEventTypes {

	fb.currentFilterItem.allPredicatesMustMatch = true

	return fb.AnyPredicateOf(predicate, predicates...)
}

// AndAllPredicatesOf adds one or multiple FilterPredicate(s) to the current FilterItem expecting ALL predicates to match.
func (fb filterBuilder) AndAllPredicatesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	return fb.AllPredicatesOf(predicate, predicates...)
}

func (fb filterBuilder) sanitizePredicates(allPredicates []FilterPredicate) []FilterPredicate {
	allPredicates = slices.DeleteFunc(allPredicates, func(e FilterPredicate) bool { return len(e.key) == 0 || len(e.val) == 0 })
	slices.SortFunc(
		allPredicates,
		func(a, b FilterPredicate) int {
			if c := strings.Compare(a.key, b.key); c != 0 {
				return c
			}

			return strings.Compare(a.val, b.val)
		})

	allPredicates = slices.Compact(allPredicates)
	allPredicates = slices.Clip(allPredicates)

	return allPredicates
}

// OrMatching finalizes the current FilterItem and starts a new one.
func (fb filterBuilder) OrMatching() EmptyFilterItemBuilder {
	fb.filter = fb.withCurrentItem()
	fb.currentFilterItem = FilterItem{}

	return fb
}

// OccurredFrom sets the inclusive lower time bound of the Filter.
func (fb filterBuilder) OccurredFrom(from time.Time) TimeRangeBuilder {
	fb.filter.occurredFrom = from

	return fb
}

// OccurredUntil sets the inclusive upper time bound of the Filter.
func (fb filterBuilder) OccurredUntil(until time.Time) TimeRangeBuilder {
	fb.filter.occurredUntil = until

	return fb
}

// MatchingAnyEvent directly creates an empty filter.
func (fb filterBuilder) MatchingAnyEvent() Filter {
	return fb.filter
}

// Finalize returns the Filter. Empty FilterItems are dropped.
func (fb filterBuilder) Finalize() Filter {
	return fb.withCurrentItem()
}

func (fb filterBuilder) withCurrentItem() Filter {
	filter := fb.filter
	filter.items = slices.Clone(filter.items)

	if !fb.currentFilterItem.isEmpty() {
		filter.items = append(filter.items, fb.currentFilterItem)
	}

	return filter
}
