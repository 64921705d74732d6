package mongostore

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"hotel_booking/internal/query"
)

// hotelKeys maps schema fields onto document keys.
var hotelKeys = map[string]string{
	"id":        "_id",
	"name":      "name",
	"address":   "address",
	"tel":       "tel",
	"createdAt": "createdAt",
}

// filterDoc renders the filter AST as a query document. Conditions on the
// same field share one operator document, e.g. {createdAt: {$gte: a, $lt: b}}.
func filterDoc(conds []query.Condition) (bson.D, error) {
	out := bson.D{}
	pos := map[string]int{}
	for _, c := range conds {
		key, ok := hotelKeys[c.Field]
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q", query.ErrBadFilter, c.Field)
		}
		vals, err := docValues(c)
		if err != nil {
			return nil, err
		}
		var expr bson.E
		if c.Op == query.OpIn {
			expr = bson.E{Key: "$in", Value: vals}
		} else {
			expr = bson.E{Key: "$" + string(c.Op), Value: vals[0]}
		}

		i, seen := pos[key]
		if !seen {
			pos[key] = len(out)
			out = append(out, bson.E{Key: key, Value: bson.D{expr}})
			continue
		}
		out[i].Value = append(out[i].Value.(bson.D), expr)
	}
	return out, nil
}

func docValues(c query.Condition) ([]any, error) {
	if len(c.Values) == 0 {
		return nil, fmt.Errorf("%w: %s has no value", query.ErrBadFilter, c.Field)
	}
	if c.Field != "id" {
		return c.Values, nil
	}
	out := make([]any, 0, len(c.Values))
	for _, v := range c.Values {
		s, _ := v.(string)
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid id %q", query.ErrBadFilter, s)
		}
		out = append(out, oid)
	}
	return out, nil
}

// sortDoc renders the sort keys, with _id as the final tiebreaker.
func sortDoc(keys []query.SortKey) bson.D {
	out := bson.D{}
	byID := false
	for _, k := range keys {
		key, ok := hotelKeys[k.Field]
		if !ok {
			continue
		}
		dir := 1
		if k.Desc {
			dir = -1
		}
		byID = byID || key == "_id"
		out = append(out, bson.E{Key: key, Value: dir})
	}
	if !byID {
		out = append(out, bson.E{Key: "_id", Value: 1})
	}
	return out
}

// projectionDoc limits stored fields; virtual fields are resolved separately.
func projectionDoc(fields []string) bson.D {
	if len(fields) == 0 {
		return nil
	}
	out := bson.D{}
	for _, f := range fields {
		if key, ok := hotelKeys[f]; ok {
			out = append(out, bson.E{Key: key, Value: 1})
		}
	}
	return out
}
