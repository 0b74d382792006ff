package planner

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strconv"

	perr "hrhub/internal/platform/errors"
	"hrhub/internal/platform/httpx"
)

// ListPersonContracts returns every contract attached to a person
func (c *Client) ListPersonContracts(ctx context.Context, personID int64) ([]Contract, error) {
	q := url.Values{"personId": {strconv.FormatInt(personID, 10)}}
	return fetchAll[Contract](ctx, c, "/contracts", q)
}

// ActiveContracts filters contracts to those covering the given YYYY-MM-DD date
func ActiveContracts(contracts []Contract, date string) []Contract {
	var out []Contract
	for _, ct := range contracts {
		if ct.ActiveOn(date) {
			out = append(out, ct)
		}
	}
	return out
}

// UpdateContractCost patches costPerHour on a contract, rounded to cents
func (c *Client) UpdateContractCost(ctx context.Context, contractID int64, costPerHour float64) error {
	if contractID == 0 {
		return perr.InvalidArgf("contract id is required")
	}
	if err := c.wait(ctx); err != nil {
		return err
	}
	body := map[string]any{"costPerHour": RoundCents(costPerHour)}
	_, err := httpx.JSON[Contract](ctx, c.http, http.MethodPatch,
		"/contracts/"+strconv.FormatInt(contractID, 10), nil, body)
	return err
}

// RoundCents rounds to two decimal places, half away from zero
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
