// Package sqlfilter translates an eventstore.Filter into a goqu WHERE expression.
// The dialect specific part, how a JSON payload predicate is expressed, is supplied by the engine.
package sqlfilter

import (
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/lending-ledger/eventstore"
)

const colEventType = "event_type"

// PredicateExpression renders one payload predicate for a SQL dialect.
type PredicateExpression func(predicate eventstore.FilterPredicate) (exp.Expression, error)

// Where returns the expression for the filter, or nil if the filter matches all events.
func Where(filter eventstore.Filter, predicateExpression PredicateExpression) (exp.Expression, error) {
	itemExpressions := make([]exp.Expression, 0, len(filter.Items()))

	for _, item := range filter.Items() {
		parts := make([]exp.Expression, 0, 2)

		if len(item.EventTypes()) > 0 {
			// eventTypes are always combined with OR
			parts = append(parts, goqu.C(colEventType).In(toAny(item.EventTypes())...))
		}

		if len(item.Predicates()) > 0 {
			predicateExpressions := make([]exp.Expression, 0, len(item.Predicates()))

			for _, predicate := range item.Predicates() {
				expression, err := predicateExpression(predicate)
				if err != nil {
					return nil, err
				}

				predicateExpressions = append(predicateExpressions, expression)
			}

			if item.AllPredicatesMustMatch() {
				parts = append(parts, goqu.And(predicateExpressions...))
			} else {
				parts = append(parts, goqu.Or(predicateExpressions...))
			}
		}

		if len(parts) == 0 {
			// an empty item matches everything, which makes the whole filter match everything
			return nil, nil
		}

		itemExpressions = append(itemExpressions, goqu.And(parts...))
	}

	if len(itemExpressions) == 0 {
		return nil, nil
	}

	return goqu.Or(itemExpressions...), nil
}

func toAny(values []string) []any {
	result := make([]any, len(values))
	for i, v := range values {
		result[i] = v
	}

	return result
}
