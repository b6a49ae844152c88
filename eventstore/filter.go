package eventstore

import (
	"slices"
	"strings"
)

// FilterEventTypeString is an alias type for event types used in a Filter.
type FilterEventTypeString = string

// FilterKeyString is an alias type for the JSON payload key of a FilterPredicate.
type FilterKeyString = string

// FilterValString is an alias type for the JSON payload value of a FilterPredicate.
type FilterValString = string

/***** Filter *****/

// Filter describes which events belong to a "dynamic event stream".
//
// The FilterItem(s) are combined with OR. An empty Filter matches all events.
// The same Filter must be used for the Query that feeds a decision and for the Append of its outcome,
// otherwise the concurrency check of the Append does not protect the decision.
type Filter struct {
	items []FilterItem
}

// Items returns all FilterItem(s) of the Filter.
func (f Filter) Items() []FilterItem {
	return f.items
}

// Matches evaluates the Filter in memory for one event.
// lookup must return the string value of a top-level JSON payload key, or "" if it does not exist.
func (f Filter) Matches(eventType string, lookup func(key FilterKeyString) FilterValString) bool {
	if len(f.items) == 0 {
		return true
	}

	for _, item := range f.items {
		if item.matches(eventType, lookup) {
			return true
		}
	}

	return false
}

// Predicates returns all distinct FilterPredicate(s) of all FilterItem(s), sorted by key and value.
// Storage engines use them to derive the identities a decision depends on.
func (f Filter) Predicates() []FilterPredicate {
	all := make([]FilterPredicate, 0)
	for _, item := range f.items {
		all = append(all, item.predicates...)
	}

	slices.SortFunc(all, comparePredicates)

	return slices.Compact(all)
}

// String renders the Filter in a compact, deterministic form, e.g. for logs and span attributes.
func (f Filter) String() string {
	if len(f.items) == 0 {
		return "*"
	}

	parts := make([]string, 0, len(f.items))
	for _, item := range f.items {
		parts = append(parts, item.String())
	}

	return strings.Join(parts, " OR ")
}

/***** FilterItem *****/

// FilterItem is one OR-branch of a Filter:
// (eventType OR eventType...) AND (predicate OR|AND predicate...).
type FilterItem struct {
	eventTypes             []FilterEventTypeString
	predicates             []FilterPredicate
	allPredicatesMustMatch bool
}

// EventTypes returns the event types of the FilterItem.
func (fi FilterItem) EventTypes() []FilterEventTypeString {
	return fi.eventTypes
}

// Predicates returns the predicates of the FilterItem.
func (fi FilterItem) Predicates() []FilterPredicate {
	return fi.predicates
}

// AllPredicatesMustMatch reports whether the predicates are combined with AND instead of OR.
func (fi FilterItem) AllPredicatesMustMatch() bool {
	return fi.allPredicatesMustMatch
}

func (fi FilterItem) matches(eventType string, lookup func(key FilterKeyString) FilterValString) bool {
	if len(fi.eventTypes) > 0 && !slices.Contains(fi.eventTypes, eventType) {
		return false
	}

	if len(fi.predicates) == 0 {
		return true
	}

	for _, p := range fi.predicates {
		hit := lookup(p.key) == p.val

		if fi.allPredicatesMustMatch && !hit {
			return false
		}

		if !fi.allPredicatesMustMatch && hit {
			return true
		}
	}

	return fi.allPredicatesMustMatch
}

// String renders the FilterItem.
func (fi FilterItem) String() string {
	var b strings.Builder

	b.WriteString("(")
	b.WriteString(strings.Join(fi.eventTypes, "|"))
	b.WriteString(")")

	if len(fi.predicates) > 0 {
		sep := "|"
		if fi.allPredicatesMustMatch {
			sep = "&"
		}

		ps := make([]string, 0, len(fi.predicates))
		for _, p := range fi.predicates {
			ps = append(ps, p.String())
		}

		b.WriteString("[")
		b.WriteString(strings.Join(ps, sep))
		b.WriteString("]")
	}

	return b.String()
}

/***** FilterPredicate *****/

// FilterPredicate matches a top-level JSON payload key against a string value.
type FilterPredicate struct {
	key FilterKeyString
	val FilterValString
}

// P is a short factory method for FilterPredicate.
func P(key FilterKeyString, val FilterValString) FilterPredicate {
	return FilterPredicate{key: key, val: val}
}

// Key returns the payload key.
func (fp FilterPredicate) Key() FilterKeyString {
	return fp.key
}

// Val returns the expected payload value.
func (fp FilterPredicate) Val() FilterValString {
	return fp.val
}

// String renders the predicate as key=val.
func (fp FilterPredicate) String() string {
	return fp.key + "=" + fp.val
}

func comparePredicates(a, b FilterPredicate) int {
	if c := strings.Compare(a.key, b.key); c != 0 {
		return c
	}

	return strings.Compare(a.val, b.val)
}

/***** FilterBuilder *****/

// FilterBuilder builds a Filter. It only allows combinations which are useful for event-sourced decisions:
//
//   - empty filter
//   - (eventType OR eventType...)
//   - (predicate OR predicate...) / (predicate AND predicate...)
//   - ((eventType OR eventType...) AND (predicate OR predicate...))
//   - ((eventType OR eventType...) AND (predicate AND predicate...))
//   - multiple of the above combined with OR
type FilterBuilder interface {
	// Matching starts a new FilterItem.
	Matching() EmptyFilterItemBuilder

	// MatchingAnyEvent finalizes an empty Filter which matches all events.
	MatchingAnyEvent() Filter
}

// EmptyFilterItemBuilder is the state after Matching().
type EmptyFilterItemBuilder interface {
	AnyEventTypeOf(eventType FilterEventTypeString, eventTypes ...FilterEventTypeString) FilterItemBuilderLackingPredicates
	AnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingEventTypes
	AllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) FilterItemBuilderLackingEventTypes
}

// FilterItemBuilderLackingPredicates is the state after event types were added.
type FilterItemBuilderLackingPredicates interface {
	AndAnyPredicateOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder
	AndAllPredicatesOf(predicate FilterPredicate, predicates ...FilterPredicate) CompletedFilterItemBuilder
	OrMatching() EmptyFilterItemBuilder
	Finalize() Filter
}

// FilterItemBuilderLackingEventTypes is the state after predicates were added.
type FilterItemBuilderLackingEventTypes interface {
	AndAnyEventTypeOf(eventType FilterEventTypeString, eventTypes ...FilterEventTypeString) CompletedFilterItemBuilder
	OrMatching() EmptyFilterItemBuilder
	Finalize() Filter
}

// CompletedFilterItemBuilder is the state after event types and predicates were added.
type CompletedFilterItemBuilder interface {
	OrMatching() EmptyFilterItemBuilder
	Finalize() Filter
}

type filterBuilder struct {
	filter            Filter
	currentFilterItem FilterItem
}

// BuildEventFilter creates a FilterBuilder which must eventually be finalized with Finalize() or MatchingAnyEvent().
func BuildEventFilter() FilterBuilder {
	return filterBuilder{}
}

func (fb filterBuilder) Matching() EmptyFilterItemBuilder {
	fb.currentFilterItem = FilterItem{}

	return fb
}

// AnyEventTypeOf removes empty event types, sorts them and removes duplicates.
func (fb filterBuilder) AnyEventTypeOf(
	eventType FilterEventTypeString,
	eventTypes ...FilterEventTypeString,
) FilterItemBuilderLackingPredicates {

	all := append([]FilterEventTypeString{eventType}, eventTypes...)
	all = slices.DeleteFunc(all, func(e FilterEventTypeString) bool { return e == "" })
	slices.Sort(all)

	fb.currentFilterItem.eventTypes = slices.Clip(slices.Compact(all))

	return fb
}

func (fb filterBuilder) AndAnyEventTypeOf(
	eventType FilterEventTypeString,
	eventTypes ...FilterEventTypeString,
) CompletedFilterItemBuilder {

	return fb.AnyEventTypeOf(eventType, eventTypes...)
}

func (fb filterBuilder) AnyPredicateOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) FilterItemBuilderLackingEventTypes {

	fb.currentFilterItem.allPredicatesMustMatch = false
	fb.currentFilterItem.predicates = sanitizePredicates(predicate, predicates...)

	return fb
}

func (fb filterBuilder) AndAnyPredicateOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	return fb.AnyPredicateOf(predicate, predicates...)
}

func (fb filterBuilder) AllPredicatesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) FilterItemBuilderLackingEventTypes {

	fb.currentFilterItem.allPredicatesMustMatch = true
	fb.currentFilterItem.predicates = sanitizePredicates(predicate, predicates...)

	return fb
}

func (fb filterBuilder) AndAllPredicatesOf(
	predicate FilterPredicate,
	predicates ...FilterPredicate,
) CompletedFilterItemBuilder {

	return fb.AllPredicatesOf(predicate, predicates...)
}

func (fb filterBuilder) OrMatching() EmptyFilterItemBuilder {
	fb.filter.items = append(slices.Clip(fb.filter.items), fb.currentFilterItem)
	fb.currentFilterItem = FilterItem{}

	return fb
}

func (fb filterBuilder) MatchingAnyEvent() Filter {
	return Filter{}
}

func (fb filterBuilder) Finalize() Filter {
	fb.filter.items = append(slices.Clip(fb.filter.items), fb.currentFilterItem)

	return fb.filter
}

// sanitizePredicates removes partial predicates (empty key or value), sorts them and removes duplicates.
func sanitizePredicates(predicate FilterPredicate, predicates ...FilterPredicate) []FilterPredicate {
	all := append([]FilterPredicate{predicate}, predicates...)
	all = slices.DeleteFunc(all, func(p FilterPredicate) bool { return p.key == "" || p.val == "" })
	slices.SortFunc(all, comparePredicates)

	return slices.Clip(slices.Compact(all))
}
