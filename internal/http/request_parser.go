// Package http exposes the transaction service as a JSON API.
//
// This file turns query strings and request bodies into domain values.
// Every failure is a *core.ValidationError so handlers can map it to a
// client error.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fintrack/internal/core"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 16

// ListParams are the query parameters of the transactions endpoint.
type ListParams struct {
	Criteria core.Criteria
	Sort     core.SortSpec
	Search   string
}

// ParseCriteria reads start, end, type, category, min and max. A missing
// start or end defaults to the current month to date; end is inclusive of
// the whole day.
func ParseCriteria(q url.Values, now time.Time) (core.Criteria, error) {
	def := core.MonthToDate(now)
	c := core.Criteria{Window: def}

	if v := q.Get("start"); v != "" {
		t, err := parseDate("start", v)
		if err != nil {
			return core.Criteria{}, err
		}
		c.Start = core.StartOfDay(t)
	}
	if v := q.Get("end"); v != "" {
		t, err := parseDate("end", v)
		if err != nil {
			return core.Criteria{}, err
		}
		c.End = core.EndOfDay(t)
	}

	if v := strings.ToLower(strings.TrimSpace(q.Get("type"))); v != "" && v != string(core.AllKinds) {
		k, err := core.ParseKind(v)
		if err != nil {
			return core.Criteria{}, err
		}
		c.Type = k
	}
	c.Category = sanitizeInput(q.Get("category"))

	lo, err := core.ParseOptionalAmount(q.Get("min"))
	if err != nil {
		return core.Criteria{}, core.Invalid("min", "invalid amount")
	}
	hi, err := core.ParseOptionalAmount(q.Get("max"))
	if err != nil {
		return core.Criteria{}, core.Invalid("max", "invalid amount")
	}
	c.MinAmount, c.MaxAmount = lo, hi

	if err := c.Validate(); err != nil {
		return core.Criteria{}, err
	}
	return c, nil
}

// ParseListParams adds sort, dir and q to the criteria.
func ParseListParams(q url.Values, now time.Time) (ListParams, error) {
	c, err := ParseCriteria(q, now)
	if err != nil {
		return ListParams{}, err
	}
	spec, err := core.ParseSortSpec(q.Get("sort"), q.Get("dir"))
	if err != nil {
		return ListParams{}, err
	}
	return ListParams{Criteria: c, Sort: spec, Search: sanitizeInput(q.Get("q"))}, nil
}

type createRequest struct {
	Type        string          `json:"type"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

// DecodeNewTransaction reads a create request. The amount may be a JSON
// number or a string with either decimal separator; the date defaults to
// today.
func DecodeNewTransaction(r *http.Request, now time.Time) (core.NewTransaction, error) {
	var req createRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return core.NewTransaction{}, core.Invalid("body", "empty request body")
		}
		return core.NewTransaction{}, core.Invalid("body", "malformed JSON")
	}

	kind, err := core.ParseKind(req.Type)
	if err != nil {
		return core.NewTransaction{}, err
	}
	amount, err := core.ParseAmount(strings.Trim(string(req.Amount), `"`))
	if err != nil {
		return core.NewTransaction{}, err
	}

	date := core.StartOfDay(now)
	if req.Date != "" {
		if date, err = parseDate("date", req.Date); err != nil {
			return core.NewTransaction{}, err
		}
	}

	return core.NewTransaction{
		Type:        kind,
		Amount:      amount,
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Date:        date,
	}, nil
}

type markReadRequest struct {
	ID string `json:"id"`
}

// DecodeMarkRead returns the notification id; empty means all.
func DecodeMarkRead(r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return "", core.Invalid("body", "unreadable body")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", nil
	}
	var req markReadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", core.Invalid("body", "malformed JSON")
	}
	return strings.TrimSpace(req.ID), nil
}
